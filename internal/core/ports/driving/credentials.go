package driving

import (
	"context"

	"github.com/custodia-labs/updatesync/internal/core/domain"
)

// CredentialsService signs users in and out of the remote store.
type CredentialsService interface {
	// SignIn stores a key pair. Both keys are required.
	SignIn(ctx context.Context, creds domain.Credentials) error

	// SignOut removes the stored key pair.
	SignOut(ctx context.Context) error

	// Current returns the stored credentials, or nil when signed out.
	Current(ctx context.Context) (*domain.Credentials, error)
}
