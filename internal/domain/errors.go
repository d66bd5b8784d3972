package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared across the application. Callers test for them with
// errors.Is; adapters map them to transport status codes.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a presentation or template does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an operation is not allowed in the
	// record's current state.
	ErrConflict = errors.New("conflict")

	// ErrNotAvailable is returned when an artifact is requested before the
	// presentation has completed.
	ErrNotAvailable = errors.New("not available")

	// ErrInvalidTemplate is returned when a template entry exists but is malformed.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrGenerationFailure is returned when content generation or document
	// synthesis fails.
	ErrGenerationFailure = errors.New("generation failed")

	// ErrInvalidTransition is returned when a status change would violate
	// the lifecycle ordering.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Error carries a caller-facing message together with one of the error kinds
// above. Error returns only the message so it can be surfaced verbatim.
type Error struct {
	Kind   error
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Detail
}

// Unwrap returns the error kind to support errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind
}

// NotFoundf builds a NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Detail: fmt.Sprintf(format, args...)}
}

// Conflictf builds a Conflict error with a formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Detail: fmt.Sprintf(format, args...)}
}

// NotAvailablef builds a NotAvailable error with a formatted message.
func NotAvailablef(format string, args ...any) *Error {
	return &Error{Kind: ErrNotAvailable, Detail: fmt.Sprintf(format, args...)}
}
