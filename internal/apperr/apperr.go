// Package apperr defines the error taxonomy surfaced by the engine. All errors
// are returned to the caller unmodified; the service layer decides how to map
// them. Callers discriminate with errors.Is against the sentinel values.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed or out-of-range input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState marks an operation attempted in the wrong lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrNotFound marks a missing referenced entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a detected concurrent mutation or uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrNotImplemented marks an unsupported format or pairing policy.
	ErrNotImplemented = errors.New("not implemented")
)

func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func NotImplemented(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, fmt.Sprintf(format, args...))
}
