package task

import "errors"

// Error taxonomy for task operations. Callers distinguish these with
// errors.Is; everything else is treated as a store failure.
var (
	// ErrNotFound is returned when the referenced task does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrForbidden is returned when a role or ownership check fails.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidRequest is returned when a required field is missing
	// or the requested change is malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidState is returned when an approval action is attempted
	// with no pending request, or a new request is issued while another
	// is still outstanding.
	ErrInvalidState = errors.New("no pending action")

	// ErrConflict is returned by the store when a conditional update
	// loses a concurrent write race. The caller reloads and retries.
	ErrConflict = errors.New("task version conflict")
)
