// Package notes is the shared note board the updatesync CLI synchronises.
//
// Every change is an update carrying one action. The board is rebuilt by
// replaying updates through a state container, so any client holding the
// same update log ends with the same board.
package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/services"
)

// Action kinds understood by the board.
const (
	KindAdd    domain.ActionKind = "note.add"
	KindRemove domain.ActionKind = "note.remove"
	KindClear  domain.ActionKind = "note.clear"
)

// ErrNoteNotFound indicates a remove named a note that is not on the board.
var ErrNoteNotFound = errors.New("note not found")

// Note is one entry on the board.
type Note struct {
	ID      string    `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author,omitempty"`
	Created time.Time `json:"created"`
}

// Board is the application state.
type Board struct {
	Notes []Note
}

// Find returns the note whose ID starts with prefix. Ambiguous prefixes match nothing.
func (b Board) Find(prefix string) (Note, bool) {
	var found Note
	matches := 0
	for _, n := range b.Notes {
		if n.ID == prefix {
			return n, true
		}
		if strings.HasPrefix(n.ID, prefix) {
			found = n
			matches++
		}
	}
	return found, matches == 1
}

// NewContainer returns a state container with the board handlers registered.
func NewContainer() *services.Container[Board] {
	c := services.NewContainer(Board{})
	c.Register(KindAdd, add)
	c.Register(KindRemove, remove)
	c.Register(KindClear, func(Board, domain.Action) (Board, error) {
		return Board{}, nil
	})
	return c
}

// AddUpdate builds an update adding a note.
func AddUpdate(text, author string, now time.Time) (domain.Update, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Update{}, fmt.Errorf("%w: note text is empty", domain.ErrInvalidInput)
	}
	return single(KindAdd, Note{
		ID:      uuid.NewString(),
		Text:    text,
		Author:  author,
		Created: now.UTC(),
	})
}

// RemoveUpdate builds an update removing the note with id.
func RemoveUpdate(id string) (domain.Update, error) {
	if id == "" {
		return domain.Update{}, fmt.Errorf("%w: note id is empty", domain.ErrInvalidInput)
	}
	return single(KindRemove, Note{ID: id})
}

// ClearUpdate builds an update removing every note.
func ClearUpdate() (domain.Update, error) {
	return single(KindClear, nil)
}

func single(kind domain.ActionKind, payload any) (domain.Update, error) {
	action, err := domain.NewAction(kind, payload)
	if err != nil {
		return domain.Update{}, err
	}
	return domain.NewUpdate(action), nil
}

func add(b Board, a domain.Action) (Board, error) {
	var n Note
	if err := a.Decode(&n); err != nil {
		return b, err
	}
	if n.ID == "" {
		return b, fmt.Errorf("%w: note without id", domain.ErrInvalidInput)
	}
	if _, ok := b.Find(n.ID); ok {
		return b, nil
	}
	notes := make([]Note, 0, len(b.Notes)+1)
	notes = append(notes, b.Notes...)
	return Board{Notes: append(notes, n)}, nil
}

func remove(b Board, a domain.Action) (Board, error) {
	var target Note
	if err := a.Decode(&target); err != nil {
		return b, err
	}
	notes := make([]Note, 0, len(b.Notes))
	for _, n := range b.Notes {
		if n.ID != target.ID {
			notes = append(notes, n)
		}
	}
	if len(notes) == len(b.Notes) {
		return b, fmt.Errorf("%w: %s", ErrNoteNotFound, target.ID)
	}
	return Board{Notes: notes}, nil
}
