package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lessonforge/internal/image"
)

// MockImageSynthesizer implements service.ImageSynthesizer for testing
type MockImageSynthesizer struct {
	// SynthesizeFn allows test cases to mock the Synthesize behavior
	SynthesizeFn func(ctx context.Context, prompt string, mode image.Mode) string

	// URL is returned when SynthesizeFn is nil
	URL string

	SynthesizeCalls struct {
		mu sync.Mutex

		Count   int
		Prompts []string
		Modes   []image.Mode
	}
}

// Synthesize implements service.ImageSynthesizer
func (m *MockImageSynthesizer) Synthesize(ctx context.Context, prompt string, mode image.Mode) string {
	m.SynthesizeCalls.mu.Lock()
	m.SynthesizeCalls.Count++
	m.SynthesizeCalls.Prompts = append(m.SynthesizeCalls.Prompts, prompt)
	m.SynthesizeCalls.Modes = append(m.SynthesizeCalls.Modes, mode)
	m.SynthesizeCalls.mu.Unlock()

	if m.SynthesizeFn != nil {
		return m.SynthesizeFn(ctx, prompt, mode)
	}
	return m.URL
}

// Reset resets the call tracking state
func (m *MockImageSynthesizer) Reset() {
	m.SynthesizeCalls.mu.Lock()
	defer m.SynthesizeCalls.mu.Unlock()

	m.SynthesizeCalls.Count = 0
	m.SynthesizeCalls.Prompts = nil
	m.SynthesizeCalls.Modes = nil
}
