package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/updatesync/internal/core/domain"
	"github.com/custodia-labs/updatesync/internal/core/ports/driven"
	"github.com/custodia-labs/updatesync/internal/logger"
	"github.com/custodia-labs/updatesync/internal/signal"
)

// Handler produces the next state from the current state and one action.
// Returning an error leaves the state unchanged.
type Handler[S any] func(state S, action domain.Action) (S, error)

// AppliedAction is published after an action changed state.
// UpdateID is empty for actions dispatched directly on the container.
type AppliedAction struct {
	UpdateID string
	Action   domain.Action
}

// Container holds application state and applies actions to it through a
// table of handlers keyed by action kind.
type Container[S any] struct {
	mu       sync.Mutex
	state    S
	handlers map[domain.ActionKind]Handler[S]

	actions    *signal.Event[AppliedAction]
	dispatches *signal.Event[domain.Action]
	failures   *signal.Event[error]
}

// Ensure Container implements the applier port.
var _ driven.UpdateApplier = (*Container[struct{}])(nil)

// NewContainer creates a container holding initial.
func NewContainer[S any](initial S) *Container[S] {
	return &Container[S]{
		state:      initial,
		handlers:   make(map[domain.ActionKind]Handler[S]),
		actions:    signal.NewEvent[AppliedAction](),
		dispatches: signal.NewEvent[domain.Action](),
		failures:   signal.NewEvent[error](),
	}
}

// Register sets the handler for kind, replacing any previous one.
func (c *Container[S]) Register(kind domain.ActionKind, handler Handler[S]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[kind] = handler
}

// State returns the current state.
func (c *Container[S]) State() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Actions streams every action after it has been applied.
func (c *Container[S]) Actions() *signal.Event[AppliedAction] {
	return c.actions
}

// Dispatches streams actions dispatched locally through Dispatch.
func (c *Container[S]) Dispatches() *signal.Event[domain.Action] {
	return c.dispatches
}

// Failures streams unknown-kind and handler errors.
func (c *Container[S]) Failures() *signal.Event[error] {
	return c.failures
}

// Apply applies every action of update in order. Failing actions are
// reported on Failures and skipped; the remaining actions still apply.
func (c *Container[S]) Apply(update domain.Update) {
	for _, action := range update.Actions {
		if c.applyAction(action) == nil {
			c.actions.Send(AppliedAction{UpdateID: update.ID, Action: action})
		}
	}
}

// Dispatch applies a single local action and publishes it on Dispatches
// so the host can bundle it into an update.
func (c *Container[S]) Dispatch(kind domain.ActionKind, payload any) (domain.Action, error) {
	action, err := domain.NewAction(kind, payload)
	if err != nil {
		return domain.Action{}, err
	}
	if err := c.applyAction(action); err != nil {
		return action, err
	}
	c.actions.Send(AppliedAction{Action: action})
	c.dispatches.Send(action)
	return action, nil
}

// applyAction replaces the state with the handler result. Failures are
// reported before being returned.
func (c *Container[S]) applyAction(action domain.Action) error {
	c.mu.Lock()
	handler, ok := c.handlers[action.Kind]
	if !ok {
		c.mu.Unlock()
		return c.report(fmt.Errorf("%w: %s", domain.ErrUnknownAction, action.Kind))
	}
	next, err := handler(c.state, action)
	if err != nil {
		c.mu.Unlock()
		return c.report(fmt.Errorf("apply %s: %w", action.Kind, err))
	}
	c.state = next
	c.mu.Unlock()
	return nil
}

func (c *Container[S]) report(err error) error {
	logger.Warn("State container: %v", err)
	c.failures.Send(err)
	return err
}
