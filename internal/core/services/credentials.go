package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/core/ports/driving"
)

// Ensure CredentialsService implements the interface.
var _ driving.CredentialsService = (*CredentialsService)(nil)

// CredentialsService manages the stored key pair.
type CredentialsService struct {
	store driven.CredentialsStore
}

// NewCredentialsService creates a new credentials service.
func NewCredentialsService(store driven.CredentialsStore) *CredentialsService {
	return &CredentialsService{
		store: store,
	}
}

// SignIn validates and stores creds.
func (s *CredentialsService) SignIn(ctx context.Context, creds domain.Credentials) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	creds.AccessKeyID = strings.TrimSpace(creds.AccessKeyID)
	creds.SecretAccessKey = strings.TrimSpace(creds.SecretAccessKey)
	creds.UserID = strings.TrimSpace(creds.UserID)
	if !creds.HasKeys() {
		return fmt.Errorf("%w: access key id and secret are required", domain.ErrInvalidInput)
	}
	if strings.Contains(creds.UserID, "/") {
		return fmt.Errorf("%w: user id must not contain '/'", domain.ErrInvalidInput)
	}
	return s.store.Save(ctx, creds)
}

// SignOut deletes the stored credentials.
func (s *CredentialsService) SignOut(ctx context.Context) error {
	if s.store == nil {
		return domain.ErrNotImplemented
	}
	return s.store.Delete(ctx)
}

// Current returns the stored credentials, or nil when signed out.
func (s *CredentialsService) Current(ctx context.Context) (*domain.Credentials, error) {
	if s.store == nil {
		return nil, domain.ErrNotImplemented
	}
	return s.store.Load(ctx)
}
