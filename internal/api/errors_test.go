package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/deckforge/internal/api/shared"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/service"
	"github.com/phrazzld/deckforge/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.NotFoundf("missing"), http.StatusNotFound},
		{"store not found", store.ErrRecordNotFound, http.StatusNotFound},
		{"not available", domain.NotAvailablef("Presentation not available. Status: pending"), http.StatusNotFound},
		{"conflict", domain.Conflictf("busy"), http.StatusConflict},
		{"validation", fmt.Errorf("%w: bad", domain.ErrValidation), http.StatusUnprocessableEntity},
		{"invalid entity", fmt.Errorf("%w: bad", store.ErrInvalidEntity), http.StatusUnprocessableEntity},
		{"queue full", service.NewPresentationServiceError("create", "enqueue", queue.ErrQueueFull), http.StatusServiceUnavailable},
		{"queue closed", queue.ErrQueueClosed, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"transaction", store.ErrTransactionFailed, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, msgInternal},
		{"domain detail", domain.Conflictf("Cannot configure presentation. Status is 'failed'."), "Cannot configure presentation. Status is 'failed'."},
		{
			"wrapped domain detail",
			service.NewPresentationServiceError("get", "read", domain.NotFoundf("Presentation with ID 'x' not found.")),
			"Presentation with ID 'x' not found.",
		},
		{"validation", fmt.Errorf("%w: presentation topic cannot be empty", domain.ErrValidation), "validation failed: presentation topic cannot be empty"},
		{"invalid entity", fmt.Errorf("%w: nil presentation", store.ErrInvalidEntity), msgInvalidEntity},
		{"queue full", queue.ErrQueueFull, msgServiceBusy},
		{"internal detail hidden", errors.New("pq: relation presentation_records does not exist"), msgInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, GetSafeErrorMessage(tc.err))
		})
	}
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := shared.ValidateRequest(CreatePresentationRequest{})
	assert.Equal(t, "Invalid request body: topic: field required", SanitizeValidationError(err))

	assert.Equal(t, msgValidationFail, SanitizeValidationError(errors.New("not a validator error")))
}
