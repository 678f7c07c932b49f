package driving

import (
	"context"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// SyncEngine reconciles the local update log with the remote store.
type SyncEngine interface {
	// Init replays the local log into application state, then synchronises
	// if the remote store is available. It must be called once.
	Init(ctx context.Context) error

	// DispatchUpdate records, applies and (when possible) stores a local update.
	DispatchUpdate(ctx context.Context, update domain.Update) error

	// CheckForUpdates applies remote updates not yet known.
	// Returns the number applied; zero while offline.
	CheckForUpdates(ctx context.Context) (int, error)

	// Flush writes queued unsaved updates in FIFO order.
	// Returns the number written.
	Flush(ctx context.Context) (int, error)

	// Status reports the current engine state.
	Status(ctx context.Context) (*EngineStatus, error)

	// Updates streams every update applied to application state.
	Updates() *signal.Event[domain.Update]
}

// EngineStatus is a snapshot of the engine.
type EngineStatus struct {
	// Availability is the remote store availability.
	Availability domain.Availability

	// Known is the number of updates applied to application state.
	Known int

	// Unsaved is the number of updates waiting for a remote write.
	Unsaved int

	// Syncing indicates a check or flush pass is running.
	Syncing bool
}
