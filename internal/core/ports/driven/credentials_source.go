package driven

import (
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// CredentialsSource is the external credential lifecycle.
//
// Availability carries the latest state; Invalidated fires when the
// credentials must no longer be used, whether or not an availability
// change follows.
type CredentialsSource interface {
	Availability() *signal.Value[domain.CredentialsState]
	Invalidated() *signal.Event[struct{}]
}
