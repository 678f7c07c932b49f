package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates a service was built without its backing store.
	ErrNotImplemented = errors.New("not implemented")

	// Remote store errors.

	// ErrStoreUnavailable indicates the remote store has no valid credentials.
	// Offline is a normal state; callers leave work queued.
	ErrStoreUnavailable = errors.New("store not available")

	// ErrStoreFailed indicates a remote write was attempted and failed.
	ErrStoreFailed = errors.New("store failed")

	// ErrUnresolvedUserID indicates an area uses the user placeholder but no
	// user is signed in.
	ErrUnresolvedUserID = errors.New("user id placeholder unresolved")

	// ErrDecode indicates a stored object could not be parsed as an update.
	ErrDecode = errors.New("cannot decode update")

	// State errors.

	// ErrUnknownAction indicates no handler is registered for an action kind.
	ErrUnknownAction = errors.New("unknown action")

	// ErrLocalPersistence indicates the local log could not be read or written.
	// The engine cannot keep its guarantees after this error.
	ErrLocalPersistence = errors.New("local persistence failed")

	// ErrEngineNotInitialised indicates Init has not run.
	ErrEngineNotInitialised = errors.New("engine not initialised")
)

// DecodeError reports an undecodable remote object together with its key.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: key %s: %v", ErrDecode, e.Key, e.Err)
}

// Unwrap lets errors.Is match both ErrDecode and the underlying cause.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}
