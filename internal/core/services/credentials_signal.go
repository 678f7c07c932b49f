package services

import (
	"sync"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/logger"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// Ensure CredentialsSignal implements the interface.
var _ driven.CredentialsSource = (*CredentialsSignal)(nil)

// CredentialsSignal folds an external credentials lifecycle into one
// availability value. Invalidation forces the value to unavailable
// immediately, even if the source never reports availability false,
// and it stays unavailable until the source reports new credentials.
type CredentialsSignal struct {
	availability *signal.Value[domain.CredentialsState]
	invalidated  *signal.Event[struct{}]

	mu     sync.Mutex
	cancel []func()
}

// NewCredentialsSignal subscribes to source and mirrors its current state.
func NewCredentialsSignal(source driven.CredentialsSource) *CredentialsSignal {
	s := &CredentialsSignal{
		availability: signal.NewValue(source.Availability().Get()),
		invalidated:  signal.NewEvent[struct{}](),
	}
	s.cancel = append(s.cancel,
		source.Availability().Subscribe(s.onAvailability),
		source.Invalidated().Subscribe(s.onInvalidated),
	)
	return s
}

// Availability returns the derived credentials state.
func (s *CredentialsSignal) Availability() *signal.Value[domain.CredentialsState] {
	return s.availability
}

// Invalidated fires once per invalidation of the source.
func (s *CredentialsSignal) Invalidated() *signal.Event[struct{}] {
	return s.invalidated
}

// Current returns the credentials if available.
func (s *CredentialsSignal) Current() (domain.Credentials, bool) {
	state := s.availability.Get()
	return state.Credentials, state.Available
}

// Close detaches from the source.
func (s *CredentialsSignal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.cancel {
		cancel()
	}
	s.cancel = nil
}

func (s *CredentialsSignal) onAvailability(state domain.CredentialsState) {
	if !state.Available {
		state = domain.Unavailable
	}
	if s.availability.Set(state) {
		logger.Debug("Credentials available: %t", state.Available)
	}
}

func (s *CredentialsSignal) onInvalidated(struct{}) {
	logger.Info("Credentials invalidated")
	s.availability.Set(domain.Unavailable)
	s.invalidated.Send(struct{}{})
}
