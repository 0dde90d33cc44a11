package mocks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/lessonforge/internal/admission"
	"github.com/phrazzld/lessonforge/internal/chat"
	"github.com/phrazzld/lessonforge/internal/image"
	"github.com/phrazzld/lessonforge/internal/mocks"
	"github.com/phrazzld/lessonforge/internal/provider"
)

func TestMockGate(t *testing.T) {
	t.Parallel()

	t.Run("allowing gate", func(t *testing.T) {
		t.Parallel()

		gate := mocks.NewAllowingGate()
		req := admission.Request{AccountID: "a", RequestID: uuid.New(), Operation: admission.OperationChat, Cost: 1}

		d, err := gate.Admit(context.Background(), req)

		assert.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 1, gate.AdmitCalls.Count)
		assert.Equal(t, req, gate.AdmitCalls.Requests[0])

		gate.Reset()
		assert.Zero(t, gate.AdmitCalls.Count)
		assert.Nil(t, gate.AdmitCalls.Requests)
	})

	t.Run("denying gate", func(t *testing.T) {
		t.Parallel()

		gate := mocks.NewDenyingGate(admission.ReasonInsufficientCredit)
		d, err := gate.Admit(context.Background(), admission.Request{})

		assert.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, admission.ReasonInsufficientCredit, d.Reason)
	})
}

func TestMockChatDispatcher(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	m := &mocks.MockChatDispatcher{Err: wantErr}

	_, err := m.Dispatch(context.Background(), "anthropic", chat.Request{UserTurn: "hi"})
	assert.ErrorIs(t, err, wantErr)

	m.DispatchFn = func(_ context.Context, providerID string, _ chat.Request) (chat.Result, error) {
		return chat.Result{Text: "ok", ProviderID: provider.ID(providerID)}, nil
	}
	res, err := m.Dispatch(context.Background(), "gemini", chat.Request{UserTurn: "hi"})
	assert.NoError(t, err)
	assert.Equal(t, provider.Gemini, res.ProviderID)

	assert.Equal(t, 2, m.DispatchCalls.Count)
	assert.Equal(t, []string{"anthropic", "gemini"}, m.DispatchCalls.ProviderIDs)
}

func TestMockImageSynthesizer(t *testing.T) {
	t.Parallel()

	m := &mocks.MockImageSynthesizer{URL: "https://img.example/a.png"}

	assert.Equal(t, "https://img.example/a.png", m.Synthesize(context.Background(), "fox", image.ModeAuto))
	assert.Equal(t, []string{"fox"}, m.SynthesizeCalls.Prompts)
	assert.Equal(t, []image.Mode{image.ModeAuto}, m.SynthesizeCalls.Modes)
}
