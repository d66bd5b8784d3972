package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresentationServiceError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *PresentationServiceError
		expected string
	}{
		{
			name: "with underlying error",
			err: &PresentationServiceError{
				Operation: "create_presentation",
				Message:   "failed to save presentation",
				Err:       errors.New("disk full"),
			},
			expected: "presentation service create_presentation failed: failed to save presentation: disk full",
		},
		{
			name:     "without underlying error",
			err:      &PresentationServiceError{Operation: "create_service", Message: "logger cannot be nil"},
			expected: "presentation service create_service failed: logger cannot be nil",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestNewPresentationServiceError(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, NewPresentationServiceError("get_presentation", "lookup failed", nil))
	})

	t.Run("wraps unexpected errors", func(t *testing.T) {
		t.Parallel()
		cause := fmt.Errorf("%w: connection reset", store.ErrTransactionFailed)

		err := NewPresentationServiceError("get_presentation", "lookup failed", cause)

		var svcErr *PresentationServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "get_presentation", svcErr.Operation)
		assert.ErrorIs(t, err, store.ErrTransactionFailed)
	})

	t.Run("passes domain errors through", func(t *testing.T) {
		t.Parallel()
		notFound := domain.NotFoundf("Presentation with ID '%s' not found.", "abc")
		wrapped := fmt.Errorf("store: %w", notFound)

		err := NewPresentationServiceError("get_presentation", "lookup failed", wrapped)

		var svcErr *PresentationServiceError
		assert.False(t, errors.As(err, &svcErr))
		assert.Same(t, notFound, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
