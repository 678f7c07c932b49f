package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ActionKind names the handler an Action is dispatched to.
type ActionKind string

// String returns the string representation.
func (k ActionKind) String() string {
	return string(k)
}

// Action is one opaque unit of change inside an Update.
// The synchronisation engine never inspects Data.
type Action struct {
	// Kind selects the state handler.
	Kind ActionKind `json:"type"`

	// Data is the handler payload, kept as raw JSON so it round-trips untouched.
	Data json.RawMessage `json:"data,omitempty"`
}

// NewAction builds an Action, encoding payload as JSON.
func NewAction(kind ActionKind, payload any) (Action, error) {
	if payload == nil {
		return Action{Kind: kind}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Action{}, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	return Action{Kind: kind, Data: data}, nil
}

// Decode unmarshals the action payload into v.
func (a Action) Decode(v any) error {
	if len(a.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(a.Data, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", a.Kind, err)
	}
	return nil
}

// Update is an immutable, uniquely identified record of actions.
// Two updates with the same ID are the same logical update.
type Update struct {
	// ID is assigned by the producer and never reassigned.
	ID string `json:"id"`

	// Actions are applied to application state in order.
	Actions []Action `json:"actions"`
}

// NewUpdate creates an update with a fresh random ID.
func NewUpdate(actions ...Action) Update {
	return Update{
		ID:      uuid.NewString(),
		Actions: actions,
	}
}

// Validate checks the update carries an ID.
func (u Update) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: update has no id", ErrInvalidInput)
	}
	return nil
}
