package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/lessonforge/internal/api/shared"
	"github.com/phrazzld/lessonforge/internal/generation"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var httpErr *generation.UpstreamHTTPError
	var maxBytesErr *http.MaxBytesError

	switch {
	case err == nil:
		return http.StatusOK

	// Client errors
	case errors.Is(err, generation.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, generation.ErrAdmissionDenied):
		return http.StatusPaymentRequired
	case errors.Is(err, generation.ErrInputTooLarge),
		errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge

	// Configuration errors
	case errors.Is(err, generation.ErrProviderNotConfigured):
		return http.StatusServiceUnavailable

	// Upstream failures
	case errors.As(err, &httpErr),
		errors.Is(err, generation.ErrUpstreamMalformed),
		errors.Is(err, generation.ErrJobFailed):
		return http.StatusBadGateway
	case errors.Is(err, generation.ErrTransport),
		errors.Is(err, generation.ErrJobTimedOut),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. Upstream bodies and credentials never reach it.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var httpErr *generation.UpstreamHTTPError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, generation.ErrInvalidRequest):
		return "Invalid request"
	case errors.Is(err, generation.ErrAdmissionDenied):
		return "Request not admitted"
	case errors.Is(err, generation.ErrInputTooLarge),
		errors.As(err, &maxBytesErr):
		return "Request body too large"
	case errors.Is(err, generation.ErrProviderNotConfigured):
		return "Provider not configured"
	case errors.As(err, &httpErr):
		return fmt.Sprintf("Upstream provider returned HTTP %d", httpErr.StatusCode)
	case errors.Is(err, generation.ErrUpstreamMalformed):
		return "Upstream provider returned an unreadable response"
	case errors.Is(err, generation.ErrJobFailed):
		return "Generation job failed"
	case errors.Is(err, generation.ErrJobTimedOut):
		return "Generation job timed out"
	case errors.Is(err, generation.ErrTransport),
		errors.Is(err, context.DeadlineExceeded):
		return "Upstream provider unreachable"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status, safe message and error code for err,
// logging the redacted detail. defaultMsg replaces the generic message for
// unclassified errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}

	var opts []shared.ResponseOption
	if status == http.StatusPaymentRequired {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	// Errors from Validate() methods carry a prefix we can show.
	if errors.Is(err, generation.ErrInvalidRequest) {
		msg := strings.TrimPrefix(err.Error(), generation.ErrInvalidRequest.Error()+": ")
		if msg != "" && msg != err.Error() {
			return "Invalid request: " + msg
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gte":
		return "too small"
	case "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
