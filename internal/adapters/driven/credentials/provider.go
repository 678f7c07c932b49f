package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/logger"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// Ensure ProviderSource implements the interface.
var _ driven.CredentialsSource = (*ProviderSource)(nil)

// ProviderSource resolves credentials through an AWS credentials provider
// (environment, shared config, SSO, instance role). Refresh re-resolves
// them; expired or unresolvable credentials make the source unavailable.
type ProviderSource struct {
	provider aws.CredentialsProvider
	userID   string

	mu           sync.Mutex
	availability *signal.Value[domain.CredentialsState]
	invalidated  *signal.Event[struct{}]
}

// NewProviderSource wraps provider. userID is attached to every published
// credentials value; it may be empty.
func NewProviderSource(provider aws.CredentialsProvider, userID string) *ProviderSource {
	return &ProviderSource{
		provider:     provider,
		userID:       userID,
		availability: signal.NewValue(domain.Unavailable),
		invalidated:  signal.NewEvent[struct{}](),
	}
}

// NewDefaultProviderSource uses the default AWS credential chain.
func NewDefaultProviderSource(ctx context.Context, region, userID string) (*ProviderSource, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("%w: no AWS credentials provider configured", domain.ErrInvalidInput)
	}
	return NewProviderSource(cfg.Credentials, userID), nil
}

// Availability returns the credentials state.
func (s *ProviderSource) Availability() *signal.Value[domain.CredentialsState] {
	return s.availability
}

// Invalidated fires when credentials that were available stop resolving.
func (s *ProviderSource) Invalidated() *signal.Event[struct{}] {
	return s.invalidated
}

// Refresh resolves credentials and publishes the result.
func (s *ProviderSource) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasAvailable := s.availability.Get().Available
	creds, err := s.provider.Retrieve(ctx)
	if err == nil && creds.Expired() {
		err = fmt.Errorf("credentials from %s expired", creds.Source)
	}
	if err != nil || !creds.HasKeys() {
		if err == nil {
			err = fmt.Errorf("credentials from %s have no keys", creds.Source)
		}
		s.availability.Set(domain.Unavailable)
		if wasAvailable {
			s.invalidated.Send(struct{}{})
		}
		return fmt.Errorf("resolving credentials: %w", err)
	}

	logger.Debug("Resolved credentials from %s", creds.Source)
	s.availability.Set(domain.AvailableWith(domain.Credentials{
		AccessKeyID:     creds.AccessKeyID,
		SecretAccessKey: creds.SecretAccessKey,
		SessionToken:    creds.SessionToken,
		UserID:          s.userID,
	}))
	return nil
}
