package shared

import (
	"errors"
	"fmt"
)

var (
	// Run-level failures. Each maps to its own exit code in cmd.
	ErrConfig    = fmt.Errorf("configuration error")
	ErrAuth      = fmt.Errorf("authentication failed")
	ErrLoad      = fmt.Errorf("spreadsheet load failed")
	ErrCancelled = fmt.Errorf("cancelled by operator")

	// Single remote-call failures, recovered inside the resolution loop.
	ErrSearch = fmt.Errorf("search failed")
	ErrWrite  = fmt.Errorf("playlist write failed")

	// Authentication details
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotFound        = fmt.Errorf("not found")
)

// OpError names the operation that failed, its category (one of the sentinels above), and the underlying cause.
//
// [errors.Is] matches both Kind and Err.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

// NewOpError wraps err as a failure of op classified as kind.
func NewOpError(op string, kind, err error) *OpError {
	return &OpError{Op: op, Kind: kind, Err: err}
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Operation returns the name of the failing operation when err carries an [OpError].
func Operation(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Op
	}
	return ""
}
