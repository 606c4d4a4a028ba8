// Package permanent marks delivery failures that retrying cannot fix,
// such as a rejected webhook URL or a malformed request.
package permanent

import "errors"

// Error wraps a non-retryable failure cause.
// Params: wrapped root cause.
// Returns: marker recognized by errors.As.
type Error struct {
	Err error
}

// Error returns the wrapped message.
// Params: none.
// Returns: string representation.
func (e Error) Error() string {
	if e.Err == nil {
		return "permanent failure"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped cause.
// Params: none.
// Returns: wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// Mark flags an error as non-retryable.
// Params: source error.
// Returns: wrapped error, nil passthrough for nil.
func Mark(err error) error {
	if err == nil {
		return nil
	}
	return Error{Err: err}
}

// Is reports whether the chain carries the permanent marker.
// Params: candidate error.
// Returns: true when a retry would not help.
func Is(err error) bool {
	var marked Error
	return errors.As(err, &marked)
}
