package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/deckforge/internal/domain"
)

// PresentationServiceError wraps unexpected errors from the presentation
// service with the failing operation.
type PresentationServiceError struct {
	// Operation is the operation that failed (e.g., "create_presentation")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for PresentationServiceError.
func (e *PresentationServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("presentation service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("presentation service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *PresentationServiceError) Unwrap() error {
	return e.Err
}

// NewPresentationServiceError creates a new PresentationServiceError.
// Caller-facing domain errors are returned as they are so their message
// reaches the client unchanged.
func NewPresentationServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	return &PresentationServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
