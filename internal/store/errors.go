package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/deckforge/internal/domain"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested record does not exist in the store.
	// It wraps domain.ErrNotFound so callers outside the store can test for
	// the generic kind.
	ErrNotFound = fmt.Errorf("record %w", domain.ErrNotFound)

	// ErrRecordNotFound indicates that the requested presentation record does
	// not exist in the store.
	ErrRecordNotFound = fmt.Errorf("%w: presentation", ErrNotFound)

	// ErrVersionConflict is returned by CompareAndSave when the stored
	// version no longer matches the caller's expected version.
	ErrVersionConflict = errors.New("version conflict")

	// ErrInvalidEntity is returned when a record fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrCorruptRecord is returned when a stored value cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrTooManyConflicts is returned by Update when every attempt lost the
	// version race.
	ErrTooManyConflicts = errors.New("too many concurrent updates")
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsVersionConflict checks if the error reports a lost compare-and-save.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Key       string // The record key (e.g., "presentation:<id>")
	Operation string // The operation that failed (e.g., "save", "get")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Operation, e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Operation, e.Key, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given key, operation, message, and wrapped error.
func NewStoreError(key, operation, message string, err error) *StoreError {
	return &StoreError{
		Key:       key,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
