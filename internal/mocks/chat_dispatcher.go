package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lessonforge/internal/chat"
)

// MockChatDispatcher implements service.ChatDispatcher for testing
type MockChatDispatcher struct {
	// DispatchFn allows test cases to mock the Dispatch behavior
	DispatchFn func(ctx context.Context, providerID string, req chat.Request) (chat.Result, error)

	// Default response values
	Result chat.Result
	Err    error

	DispatchCalls struct {
		mu sync.Mutex

		Count       int
		ProviderIDs []string
		Requests    []chat.Request
	}
}

// Dispatch implements service.ChatDispatcher
func (m *MockChatDispatcher) Dispatch(ctx context.Context, providerID string, req chat.Request) (chat.Result, error) {
	m.DispatchCalls.mu.Lock()
	m.DispatchCalls.Count++
	m.DispatchCalls.ProviderIDs = append(m.DispatchCalls.ProviderIDs, providerID)
	m.DispatchCalls.Requests = append(m.DispatchCalls.Requests, req)
	m.DispatchCalls.mu.Unlock()

	if m.DispatchFn != nil {
		return m.DispatchFn(ctx, providerID, req)
	}
	return m.Result, m.Err
}

// Reset resets the call tracking state
func (m *MockChatDispatcher) Reset() {
	m.DispatchCalls.mu.Lock()
	defer m.DispatchCalls.mu.Unlock()

	m.DispatchCalls.Count = 0
	m.DispatchCalls.ProviderIDs = nil
	m.DispatchCalls.Requests = nil
}
