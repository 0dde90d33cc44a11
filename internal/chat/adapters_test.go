package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/provider"
)

// captureServer records the last decoded JSON request body.
type captureServer struct {
	*httptest.Server
	path   string
	header http.Header
	body   map[string]any
}

func newCaptureServer(t *testing.T, status int, response string) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.path = r.URL.Path
		cs.header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		cs.body = map[string]any{}
		_ = json.Unmarshal(raw, &cs.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func roles(t *testing.T, body map[string]any, field string) []string {
	t.Helper()
	raw, ok := body[field].([]any)
	require.True(t, ok, "missing %s in request body", field)
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(map[string]any)["role"].(string))
	}
	return out
}

func TestOpenAIAdapter(t *testing.T) {
	const okBody = `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-small",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Plants eat light."}}]}`

	t.Run("maps roles and completion budget", func(t *testing.T) {
		srv := newCaptureServer(t, http.StatusOK, okBody)
		a, err := newAdapter(context.Background(), provider.Descriptor{
			ID: provider.OpenAI, Endpoint: srv.URL + "/v1", Credential: "sk-test",
		}, srv.Client())
		require.NoError(t, err)

		text, err := a.Complete(context.Background(), "gpt-small", validRequest())

		require.NoError(t, err)
		assert.Equal(t, "Plants eat light.", text)
		assert.Equal(t, "/v1/chat/completions", srv.path)
		assert.Equal(t, "Bearer sk-test", srv.header.Get("Authorization"))
		assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles(t, srv.body, "messages"))
		assert.EqualValues(t, 512, srv.body["max_completion_tokens"])
		assert.NotContains(t, srv.body, "max_tokens")
	})

	t.Run("openrouter uses max_tokens", func(t *testing.T) {
		srv := newCaptureServer(t, http.StatusOK, okBody)
		a, err := newAdapter(context.Background(), provider.Descriptor{
			ID: provider.OpenRouter, Endpoint: srv.URL + "/api/v1", Credential: "sk-or-test",
		}, srv.Client())
		require.NoError(t, err)

		_, err = a.Complete(context.Background(), "openai/gpt-4o-mini", validRequest())

		require.NoError(t, err)
		assert.Equal(t, "/api/v1/chat/completions", srv.path)
		assert.EqualValues(t, 512, srv.body["max_tokens"])
	})

	t.Run("non-2xx is an upstream http error", func(t *testing.T) {
		srv := newCaptureServer(t, http.StatusUnauthorized,
			`{"error":{"message":"Incorrect API key provided: sk-test","type":"invalid_request_error","code":"invalid_api_key"}}`)
		a, err := newAdapter(context.Background(), provider.Descriptor{
			ID: provider.OpenAI, Endpoint: srv.URL, Credential: "sk-test",
		}, srv.Client())
		require.NoError(t, err)

		_, err = a.Complete(context.Background(), "gpt-small", validRequest())

		var httpErr *generation.UpstreamHTTPError
		require.True(t, errors.As(err, &httpErr), "got %v", err)
		assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	})

	t.Run("no choices is malformed", func(t *testing.T) {
		srv := newCaptureServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
		a, err := newAdapter(context.Background(), provider.Descriptor{
			ID: provider.OpenAI, Endpoint: srv.URL, Credential: "sk-test",
		}, srv.Client())
		require.NoError(t, err)

		_, err = a.Complete(context.Background(), "gpt-small", validRequest())
		assert.ErrorIs(t, err, generation.ErrUpstreamMalformed)
	})
}

func TestAnthropicAdapter(t *testing.T) {
	t.Run("maps system prompt and history", func(t *testing.T) {
		srv := newCaptureServer(t, http.StatusOK, `{"id":"msg_1","type":"message","role":"assistant","model":"claude",
			"content":[{"type":"text","text":"Chloro"},{"type":"text","text":"phyll."}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`)
		a, err := newAdapter(context.Background(), provider.Descriptor{
			ID: provider.Anthropic, Endpoint: srv.URL, Credential: "sk-ant-test",
		}, srv.Client())
		require.NoError(t, err)

		text, err := a.Complete(context.Background(), "claude", validRequest())

		require.NoError(t, err)
		assert.Equal(t, "Chlorophyll.", text)
		assert.Equal(t, "/v1/messages", srv.path)
		assert.Equal(t, "sk-ant-test", srv.header.Get("X-Api-Key"))
		assert.Equal(t, []string{"user", "assistant", "user"}, roles(t, srv.body, "messages"))
		assert.EqualValues(t, 512, srv.body["max_tokens"])
		assert.Contains(t, srv.body, "system")
	})

	t.Run("rate limit keeps status", func(t *testing.T) {
		srv := newCaptureServer(t, http.StatusTooManyRequests,
			`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
		a, err := newAdapter(context.Background(), provider.Descriptor{
			ID: provider.Anthropic, Endpoint: srv.URL, Credential: "sk-ant-test",
		}, srv.Client())
		require.NoError(t, err)

		_, err = a.Complete(context.Background(), "claude", validRequest())

		assert.Equal(t, http.StatusTooManyRequests, generation.HTTPStatus(err))
	})
}

func TestGeminiAdapter(t *testing.T) {
	t.Run("maps assistant turns to model role", func(t *testing.T) {
		srv := newCaptureServer(t, http.StatusOK,
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"Light to sugar."}]},"finishReason":"STOP"}]}`)
		a, err := newAdapter(context.Background(), provider.Descriptor{
			ID: provider.Gemini, Endpoint: srv.URL, Credential: "gemini-key",
		}, srv.Client())
		require.NoError(t, err)

		text, err := a.Complete(context.Background(), "gemini-2.0-flash", validRequest())

		require.NoError(t, err)
		assert.Equal(t, "Light to sugar.", text)
		assert.True(t, strings.HasSuffix(srv.path, "models/gemini-2.0-flash:generateContent"), srv.path)
		assert.Equal(t, []string{"user", "model", "user"}, roles(t, srv.body, "contents"))
		assert.Contains(t, srv.body, "systemInstruction")
	})

	t.Run("api error keeps status", func(t *testing.T) {
		srv := newCaptureServer(t, http.StatusServiceUnavailable,
			`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
		a, err := newAdapter(context.Background(), provider.Descriptor{
			ID: provider.Gemini, Endpoint: srv.URL, Credential: "gemini-key",
		}, srv.Client())
		require.NoError(t, err)

		_, err = a.Complete(context.Background(), "gemini-2.0-flash", validRequest())

		assert.Equal(t, http.StatusServiceUnavailable, generation.HTTPStatus(err))
		assert.Equal(t, generation.CodeUpstreamHTTPError, generation.Code(err))
	})
}

func TestNewAdapter_RejectsNonChatProvider(t *testing.T) {
	_, err := newAdapter(context.Background(), provider.Descriptor{ID: provider.Replicate, Credential: "r8"}, nil)
	assert.Error(t, err)
}
