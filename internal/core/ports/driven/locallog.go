package driven

import (
	"context"

	"github.com/custodia-labs/updatesync/internal/core/domain"
)

// LocalLog durably records known and unsaved updates for one namespace.
// Every method returns only after the change is durable.
type LocalLog interface {
	// AppendUnsaved adds update to the end of the unsaved queue.
	// Appending an ID already queued is a no-op.
	AppendUnsaved(ctx context.Context, update domain.Update) error

	// RemoveUnsaved drops the queued update with id. Missing IDs are ignored.
	RemoveUnsaved(ctx context.Context, id string) error

	// ListUnsaved returns the unsaved queue in enqueue order.
	ListUnsaved(ctx context.Context) ([]domain.Update, error)

	// AppendKnown records update as surfaced to application state.
	// Appending an ID already known is a no-op.
	AppendKnown(ctx context.Context, update domain.Update) error

	// ListKnown returns known updates in the order they were recorded.
	ListKnown(ctx context.Context) ([]domain.Update, error)

	// KnownIDs returns the set of known update IDs.
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
}
