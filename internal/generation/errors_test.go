package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"provider not configured", fmt.Errorf("%w: openai", ErrProviderNotConfigured), CodeProviderNotConfigured},
		{"upstream http", &UpstreamHTTPError{Provider: "replicate", StatusCode: 422}, CodeUpstreamHTTPError},
		{"wrapped upstream http", fmt.Errorf("submit: %w", &UpstreamHTTPError{StatusCode: 500}), CodeUpstreamHTTPError},
		{"malformed", fmt.Errorf("%w: missing id", ErrUpstreamMalformed), CodeUpstreamMalformed},
		{"transport", ErrTransport, CodeTransportError},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), CodeTransportError},
		{"job failed", ErrJobFailed, CodeJobFailed},
		{"job timed out", ErrJobTimedOut, CodeJobTimedOut},
		{"validation unreachable", ErrValidationServiceUnreachable, CodeValidationServiceUnreachable},
		{"too large", ErrInputTooLarge, CodeInputTooLarge},
		{"no result", ErrNoAcceptableResult, CodeNoAcceptableResult},
		{"invalid", ErrInvalidRequest, CodeInvalidRequest},
		{"denied", ErrAdmissionDenied, CodeAdmissionDenied},
		{"unclassified", errors.New("boom"), CodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Code(tc.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, 429, HTTPStatus(fmt.Errorf("x: %w", &UpstreamHTTPError{StatusCode: 429})))
	assert.Equal(t, 0, HTTPStatus(ErrTransport))
}

func TestUpstreamHTTPError_Error(t *testing.T) {
	assert.Equal(t, "openai: upstream returned HTTP 503", (&UpstreamHTTPError{Provider: "openai", StatusCode: 503}).Error())
	assert.Equal(t, "openai: upstream returned HTTP 400: bad model",
		(&UpstreamHTTPError{Provider: "openai", StatusCode: 400, Body: "bad model"}).Error())
}
