package driven

import "github.com/custodia-labs/updatesync/internal/core/domain"

// UpdateApplier applies accepted updates to application state.
// Apply must not fail: handler problems are reported by the implementation
// to its own observers and never returned to the caller.
type UpdateApplier interface {
	Apply(update domain.Update)
}
