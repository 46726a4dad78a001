package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the request id does not exist.
	ErrNotFound = errors.New("vacation request not found")
	// ErrPermissionDenied is returned when the actor's role does not own
	// the request's current stage.
	ErrPermissionDenied = errors.New("role may not act at the current stage")
	// ErrAlreadyFinalized is returned for any action on an approved or
	// denied request.
	ErrAlreadyFinalized = errors.New("vacation request is already finalized")
	// ErrConcurrentModification is returned when the conditional decision
	// write lost against a concurrent actor. The caller decides whether
	// to re-fetch and retry; the engine never retries on its own.
	ErrConcurrentModification = errors.New("vacation request was modified concurrently")
)

// ValidationError reports the specific field that failed submission or
// action validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a request store failure so callers can tell an
// unavailable store apart from a business rejection.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
