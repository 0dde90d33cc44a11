package chat

import (
	"context"
	"fmt"
	"net/http"

	"github.com/phrazzld/lessonforge/internal/provider"
)

// Adapter performs one completion against a single upstream. Implementations
// return errors already classified in the generation taxonomy.
type Adapter interface {
	Complete(ctx context.Context, model string, req Request) (string, error)
}

// newAdapter is the only place a provider id selects an implementation.
func newAdapter(ctx context.Context, d provider.Descriptor, httpClient *http.Client) (Adapter, error) {
	switch d.ID {
	case provider.OpenAI:
		return newOpenAIAdapter(d, httpClient, maxCompletionTokens), nil
	case provider.OpenRouter:
		return newOpenAIAdapter(d, httpClient, legacyMaxTokens), nil
	case provider.Anthropic:
		return newAnthropicAdapter(d, httpClient), nil
	case provider.Gemini:
		return newGeminiAdapter(ctx, d, httpClient)
	default:
		return nil, fmt.Errorf("provider %q has no chat adapter", d.ID)
	}
}
