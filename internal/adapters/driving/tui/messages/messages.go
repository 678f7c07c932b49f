// Package messages defines Bubbletea message types for the watch view.
// Messages carry engine events and command results back into the model.
package messages

import (
	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driving"
)

// UpdateApplied is sent for every update the engine applies, local or remote.
type UpdateApplied struct {
	Update domain.Update
}

// StatusRefreshed carries an engine status snapshot.
type StatusRefreshed struct {
	Status *driving.EngineStatus
	Err    error
}

// StatusTick asks the model to refresh the engine status.
type StatusTick struct{}

// SyncCompleted reports a manual sync: remote updates applied, then
// unsaved updates written.
type SyncCompleted struct {
	Applied int
	Written int
	Err     error
}

// NoteDispatched reports the result of posting or removing a note.
type NoteDispatched struct {
	Err error
}

// FailureReported carries a diagnostic from the engine or the remote store.
type FailureReported struct {
	Err error
}

// Mode identifies what the watch view is doing.
type Mode int

const (
	// ModeBoard shows the note board.
	ModeBoard Mode = iota
	// ModeInput is typing a new note.
	ModeInput
	// ModeHelp shows the keybindings.
	ModeHelp
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeBoard:
		return "board"
	case ModeInput:
		return "input"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}
