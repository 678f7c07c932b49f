// Package tui provides the interactive watch view for updatesync: a live
// note board with remote availability and the unsaved queue in a status
// bar. It is a driving adapter over the sync engine.
package tui

import (
	"github.com/custodia-labs/updatesync/internal/core/ports/driving"
	"github.com/custodia-labs/updatesync/internal/notes"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// BoardReader exposes the current note board.
type BoardReader interface {
	State() notes.Board
}

// Ports aggregates what the watch view drives and observes.
type Ports struct {
	// Engine dispatches notes and runs manual syncs.
	Engine driving.SyncEngine

	// Board is the application state the engine applies updates to.
	Board BoardReader

	// Failures are diagnostic streams shown in the status bar.
	Failures []*signal.Event[error]

	// Author is recorded on notes posted from the view.
	Author string
}

// NewPorts creates a Ports aggregate.
func NewPorts(engine driving.SyncEngine, board BoardReader, author string) *Ports {
	return &Ports{
		Engine: engine,
		Board:  board,
		Author: author,
	}
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Engine == nil {
		return ErrMissingEngine
	}
	if p.Board == nil {
		return ErrMissingBoard
	}
	return nil
}
