package tui

import "errors"

// ErrMissingEngine is returned when the sync engine is not provided.
var ErrMissingEngine = errors.New("tui: sync engine is required")

// ErrMissingBoard is returned when the note board is not provided.
var ErrMissingBoard = errors.New("tui: note board is required")

// ErrNoNoteSelected is shown when remove is pressed on an empty board.
var ErrNoNoteSelected = errors.New("no note selected")
