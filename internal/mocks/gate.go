package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lessonforge/internal/admission"
)

// MockGate implements admission.Gate for testing
type MockGate struct {
	// AdmitFn allows test cases to mock the Admit behavior
	AdmitFn func(ctx context.Context, req admission.Request) (admission.Decision, error)

	// Default response values
	Decision admission.Decision
	Err      error

	AdmitCalls struct {
		mu sync.Mutex

		Count    int
		Requests []admission.Request
	}
}

// NewAllowingGate creates a MockGate that admits every request
func NewAllowingGate() *MockGate {
	return &MockGate{Decision: admission.Decision{Allowed: true}}
}

// NewDenyingGate creates a MockGate that denies every request with reason
func NewDenyingGate(reason string) *MockGate {
	return &MockGate{Decision: admission.Decision{Reason: reason}}
}

// Admit implements admission.Gate
func (m *MockGate) Admit(ctx context.Context, req admission.Request) (admission.Decision, error) {
	m.AdmitCalls.mu.Lock()
	m.AdmitCalls.Count++
	m.AdmitCalls.Requests = append(m.AdmitCalls.Requests, req)
	m.AdmitCalls.mu.Unlock()

	if m.AdmitFn != nil {
		return m.AdmitFn(ctx, req)
	}
	return m.Decision, m.Err
}

// Reset resets the call tracking state
func (m *MockGate) Reset() {
	m.AdmitCalls.mu.Lock()
	defer m.AdmitCalls.mu.Unlock()

	m.AdmitCalls.Count = 0
	m.AdmitCalls.Requests = nil
}
