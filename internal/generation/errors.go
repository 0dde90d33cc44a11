package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the orchestration layer.
var (
	// ErrProviderNotConfigured is returned when the resolved provider has no usable credential.
	// It is a configuration problem, not a runtime failure.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrUpstreamMalformed is returned when an upstream body cannot be parsed or lacks expected fields
	ErrUpstreamMalformed = errors.New("malformed upstream response")

	// ErrTransport is returned for connection failures and timeouts
	ErrTransport = errors.New("upstream transport failure")

	// ErrJobFailed is returned when an asynchronous job is reported as failed by its provider
	ErrJobFailed = errors.New("job failed")

	// ErrJobTimedOut is returned when a job exhausts its attempt budget or its deadline
	ErrJobTimedOut = errors.New("job timed out")

	// ErrValidationServiceUnreachable is returned by reference validators that could not
	// reach their lookup service. Callers treat it as fail-open.
	ErrValidationServiceUnreachable = errors.New("validation service unreachable")

	// ErrInputTooLarge is returned when an input exceeds the configured size ceiling
	ErrInputTooLarge = errors.New("input too large")

	// ErrNoAcceptableResult is used by fallback strategies that ran but produced nothing usable.
	// It is never surfaced to clients; the pipeline turns it into an empty result.
	ErrNoAcceptableResult = errors.New("no acceptable result")

	// ErrInvalidRequest is returned when a request fails validation
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAdmissionDenied is returned when the admission gate rejects a request
	ErrAdmissionDenied = errors.New("admission denied")
)

// UpstreamHTTPError is returned when an upstream answered with a non-2xx status.
type UpstreamHTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *UpstreamHTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream returned HTTP %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: upstream returned HTTP %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Machine-readable failure codes exposed to API clients.
const (
	CodeProviderNotConfigured        = "provider_not_configured"
	CodeUpstreamHTTPError            = "upstream_http_error"
	CodeUpstreamMalformed            = "upstream_malformed"
	CodeTransportError               = "transport_error"
	CodeJobFailed                    = "job_failed"
	CodeJobTimedOut                  = "job_timed_out"
	CodeValidationServiceUnreachable = "validation_service_unreachable"
	CodeInputTooLarge                = "input_too_large"
	CodeNoAcceptableResult           = "no_acceptable_result"
	CodeInvalidRequest               = "invalid_request"
	CodeAdmissionDenied              = "admission_denied"
	CodeInternal                     = "internal_error"
)

// Code maps an error from the taxonomy above to its stable machine code.
// Unclassified errors map to CodeInternal.
func Code(err error) string {
	var httpErr *UpstreamHTTPError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProviderNotConfigured):
		return CodeProviderNotConfigured
	case errors.As(err, &httpErr):
		return CodeUpstreamHTTPError
	case errors.Is(err, ErrUpstreamMalformed):
		return CodeUpstreamMalformed
	case errors.Is(err, ErrTransport),
		errors.Is(err, context.DeadlineExceeded):
		return CodeTransportError
	case errors.Is(err, ErrJobFailed):
		return CodeJobFailed
	case errors.Is(err, ErrJobTimedOut):
		return CodeJobTimedOut
	case errors.Is(err, ErrValidationServiceUnreachable):
		return CodeValidationServiceUnreachable
	case errors.Is(err, ErrInputTooLarge):
		return CodeInputTooLarge
	case errors.Is(err, ErrNoAcceptableResult):
		return CodeNoAcceptableResult
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrAdmissionDenied):
		return CodeAdmissionDenied
	default:
		return CodeInternal
	}
}

// HTTPStatus returns the HTTP status an upstream call ended with, for logging.
// Successful calls report 200; failures without an upstream status report 0.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var httpErr *UpstreamHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
