package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lessonforge/internal/content"
)

// MockMarkupNormalizer implements service.MarkupNormalizer for testing
type MockMarkupNormalizer struct {
	// NormalizeFn allows test cases to mock the Normalize behavior
	NormalizeFn func(ctx context.Context, req content.Request) (content.Result, error)

	// Default response values
	Result content.Result
	Err    error

	NormalizeCalls struct {
		mu sync.Mutex

		Count    int
		Requests []content.Request
	}
}

// Normalize implements service.MarkupNormalizer
func (m *MockMarkupNormalizer) Normalize(ctx context.Context, req content.Request) (content.Result, error) {
	m.NormalizeCalls.mu.Lock()
	m.NormalizeCalls.Count++
	m.NormalizeCalls.Requests = append(m.NormalizeCalls.Requests, req)
	m.NormalizeCalls.mu.Unlock()

	if m.NormalizeFn != nil {
		return m.NormalizeFn(ctx, req)
	}
	return m.Result, m.Err
}

// Reset resets the call tracking state
func (m *MockMarkupNormalizer) Reset() {
	m.NormalizeCalls.mu.Lock()
	defer m.NormalizeCalls.mu.Unlock()

	m.NormalizeCalls.Count = 0
	m.NormalizeCalls.Requests = nil
}
