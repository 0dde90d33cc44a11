// Package admission decides whether a request may run before any generation
// step starts. Decisions come from an injected Gate; the orchestration layer
// only ever acts on a completed decision.
package admission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/lessonforge/internal/generation"
)

// Operation names the kind of work being admitted.
type Operation string

// Admitted operations.
const (
	OperationChat         Operation = "chat"
	OperationImage        Operation = "image"
	OperationIllustration Operation = "illustration"
	OperationNormalize    Operation = "normalize"
)

// Reasons a request is denied.
const (
	ReasonInsufficientCredit = "insufficient_credit"
	ReasonUnknownAccount     = "unknown_account"
	// ReasonRequestIDReused means the request id was already debited for a
	// different account, operation or amount.
	ReasonRequestIDReused = "request_id_reused"
)

// Request describes the work about to run.
type Request struct {
	AccountID string
	// RequestID keys the debit; admitting the same id twice debits once.
	RequestID uuid.UUID
	Operation Operation
	Cost      int64
}

// Decision is a completed admission outcome.
type Decision struct {
	Allowed bool
	// Replayed is set when RequestID was already admitted earlier.
	Replayed bool
	Reason   string
}

// Gate decides whether a request may run. A returned error means no decision
// was reached, and the caller must not run the request.
type Gate interface {
	Admit(ctx context.Context, req Request) (Decision, error)
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, req Request) (Decision, error)

// Admit implements Gate.
func (f GateFunc) Admit(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}

// AllowAll admits every request without debiting anything.
var AllowAll Gate = GateFunc(func(context.Context, Request) (Decision, error) {
	return Decision{Allowed: true}, nil
})

// Enforce runs the gate and converts a denial into generation.ErrAdmissionDenied.
func Enforce(ctx context.Context, gate Gate, req Request) error {
	if gate == nil {
		gate = AllowAll
	}
	decision, err := gate.Admit(ctx, req)
	if err != nil {
		return fmt.Errorf("admission check for %s: %w", req.Operation, err)
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", generation.ErrAdmissionDenied, decision.Reason)
	}
	return nil
}
