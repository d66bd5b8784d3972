package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/deckforge/internal/api/shared"
	"github.com/phrazzld/deckforge/internal/domain"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/store"
)

// Caller-facing messages for errors without their own detail.
const (
	msgInternal       = "An unexpected internal server error occurred."
	msgInvalidBody    = "Invalid request body"
	msgServiceBusy    = "Service is busy, please retry later"
	msgInvalidEntity  = "Invalid presentation data"
	msgValidationFail = "Validation error"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes. Anything
// not recognised is a 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNotAvailable):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusUnprocessableEntity

	case errors.Is(err, queue.ErrQueueFull),
		errors.Is(err, queue.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a message that can be shown to the caller.
// Errors that carry a caller-facing detail keep it; everything else gets a
// generic message so internals never leak.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgInternal
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr.Detail
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		// Validation messages are built from request values only.
		return err.Error()
	case errors.Is(err, store.ErrInvalidEntity):
		return msgInvalidEntity
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		return msgServiceBusy
	default:
		return msgInternal
	}
}

// SanitizeValidationError turns struct validation errors into a short
// message naming the offending fields.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgValidationFail
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fieldPath(fe), validationTagMessage(fe)))
	}
	return msgInvalidBody + ": " + strings.Join(parts, "; ")
}

// fieldPath drops the root struct name from the namespace, so
// "CreatePresentationRequest.custom_colors.accent" becomes "custom_colors.accent".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func validationTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted detail.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
