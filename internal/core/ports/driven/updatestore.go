package driven

import (
	"context"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// RemoteUpdateStore stores and fetches updates in a namespace of an
// object store. All transport failures stay behind this boundary.
type RemoteUpdateStore interface {
	// Store writes one update to the write area.
	// Returns domain.ErrStoreUnavailable while unavailable and wraps
	// domain.ErrStoreFailed when the write was attempted and failed.
	Store(ctx context.Context, update domain.Update) error

	// FetchAll returns every update visible in the read areas, ordered by
	// read area then key. Returns nil while unavailable or on failure.
	FetchAll(ctx context.Context) []domain.Update

	// Availability reports whether remote operations can be issued.
	Availability() *signal.Value[domain.Availability]
}
