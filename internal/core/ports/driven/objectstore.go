package driven

import (
	"context"

	"github.com/custodia-labs/updatesync/internal/core/domain"
)

// ObjectStore is the remote key/object service (S3 or compatible).
// Credentials are passed per call; implementations keep no global
// credential state.
type ObjectStore interface {
	// ListKeys returns all keys under prefix in ascending key order.
	ListKeys(ctx context.Context, creds domain.Credentials, bucket, prefix string) ([]string, error)

	// GetObject returns the object body.
	GetObject(ctx context.Context, creds domain.Credentials, bucket, key string) ([]byte, error)

	// PutObject writes body at key, replacing any existing object.
	PutObject(ctx context.Context, creds domain.Credentials, bucket, key string, body []byte) error

	// DeleteObject removes key. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, creds domain.Credentials, bucket, key string) error
}
