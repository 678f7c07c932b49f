package driven

import (
	"context"

	"github.com/custodia-labs/updatesync/internal/core/domain"
)

// CredentialsStore persists the signed-in user's key pair.
// A credentials source watching the same medium picks up changes.
type CredentialsStore interface {
	// Load returns the stored credentials, or nil if none are stored.
	Load(ctx context.Context) (*domain.Credentials, error)

	// Save replaces the stored credentials.
	Save(ctx context.Context, creds domain.Credentials) error

	// Delete removes the stored credentials. Deleting nothing is not an error.
	Delete(ctx context.Context) error
}
