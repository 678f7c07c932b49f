package credentials

import (
	"fmt"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// Ensure AccessKeySource implements the interface.
var _ driven.CredentialsSource = (*AccessKeySource)(nil)

// AccessKeySource publishes a fixed access key pair.
type AccessKeySource struct {
	availability *signal.Value[domain.CredentialsState]
	invalidated  *signal.Event[struct{}]
}

// NewAccessKeySource creates a source that is available immediately.
func NewAccessKeySource(creds domain.Credentials) (*AccessKeySource, error) {
	if !creds.HasKeys() {
		return nil, fmt.Errorf("%w: access key id and secret are required", domain.ErrInvalidInput)
	}
	return &AccessKeySource{
		availability: signal.NewValue(domain.AvailableWith(creds)),
		invalidated:  signal.NewEvent[struct{}](),
	}, nil
}

// NewSignedOutSource creates a source with no credentials until SignIn.
func NewSignedOutSource() *AccessKeySource {
	return &AccessKeySource{
		availability: signal.NewValue(domain.Unavailable),
		invalidated:  signal.NewEvent[struct{}](),
	}
}

// Availability returns the credentials state.
func (s *AccessKeySource) Availability() *signal.Value[domain.CredentialsState] {
	return s.availability
}

// Invalidated fires on SignOut.
func (s *AccessKeySource) Invalidated() *signal.Event[struct{}] {
	return s.invalidated
}

// SignIn publishes creds, replacing any current credentials.
func (s *AccessKeySource) SignIn(creds domain.Credentials) error {
	if !creds.HasKeys() {
		return fmt.Errorf("%w: access key id and secret are required", domain.ErrInvalidInput)
	}
	s.availability.Set(domain.AvailableWith(creds))
	return nil
}

// SignOut withdraws the credentials and fires the invalidation event.
func (s *AccessKeySource) SignOut() {
	s.availability.Set(domain.Unavailable)
	s.invalidated.Send(struct{}{})
}
