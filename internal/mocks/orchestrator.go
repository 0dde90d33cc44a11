package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lessonforge/internal/chat"
	"github.com/phrazzld/lessonforge/internal/content"
	"github.com/phrazzld/lessonforge/internal/image"
	"github.com/phrazzld/lessonforge/internal/service"
)

// MockOrchestrator implements service.Orchestrator for testing.
// Methods without a function field return zero values.
type MockOrchestrator struct {
	ChatFn func(ctx context.Context, caller service.Caller, providerID string, req chat.Request) (chat.Result, error)

	SynthesizeImageFn func(ctx context.Context, caller service.Caller, prompt string, mode image.Mode) (string, error)

	IllustrateFn func(
		ctx context.Context,
		caller service.Caller,
		mode image.Mode,
		units []service.IllustrationUnit,
	) ([]service.Illustration, error)

	NormalizeFn func(ctx context.Context, caller service.Caller, req content.Request) (content.Result, error)

	mu      sync.Mutex
	Callers []service.Caller
}

var _ service.Orchestrator = (*MockOrchestrator)(nil)

func (m *MockOrchestrator) record(caller service.Caller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Callers = append(m.Callers, caller)
}

// Chat implements service.Orchestrator
func (m *MockOrchestrator) Chat(
	ctx context.Context,
	caller service.Caller,
	providerID string,
	req chat.Request,
) (chat.Result, error) {
	m.record(caller)
	if m.ChatFn != nil {
		return m.ChatFn(ctx, caller, providerID, req)
	}
	return chat.Result{}, nil
}

// SynthesizeImage implements service.Orchestrator
func (m *MockOrchestrator) SynthesizeImage(
	ctx context.Context,
	caller service.Caller,
	prompt string,
	mode image.Mode,
) (string, error) {
	m.record(caller)
	if m.SynthesizeImageFn != nil {
		return m.SynthesizeImageFn(ctx, caller, prompt, mode)
	}
	return "", nil
}

// Illustrate implements service.Orchestrator
func (m *MockOrchestrator) Illustrate(
	ctx context.Context,
	caller service.Caller,
	mode image.Mode,
	units []service.IllustrationUnit,
) ([]service.Illustration, error) {
	m.record(caller)
	if m.IllustrateFn != nil {
		return m.IllustrateFn(ctx, caller, mode, units)
	}
	return nil, nil
}

// Normalize implements service.Orchestrator
func (m *MockOrchestrator) Normalize(
	ctx context.Context,
	caller service.Caller,
	req content.Request,
) (content.Result, error) {
	m.record(caller)
	if m.NormalizeFn != nil {
		return m.NormalizeFn(ctx, caller, req)
	}
	return content.Result{}, nil
}
