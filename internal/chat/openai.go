package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/provider"
	"github.com/phrazzld/lessonforge/internal/redact"
)

// tokenField selects how an OpenAI-compatible upstream names the output budget.
type tokenField int

const (
	maxCompletionTokens tokenField = iota
	legacyMaxTokens
)

// openAIAdapter serves OpenAI and OpenAI-compatible gateways such as OpenRouter.
type openAIAdapter struct {
	id     provider.ID
	client openai.Client
	tokens tokenField
}

func newOpenAIAdapter(d provider.Descriptor, httpClient *http.Client, tokens tokenField) *openAIAdapter {
	opts := []option.RequestOption{
		option.WithAPIKey(d.Credential.Reveal()),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if d.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(d.Endpoint))
	}
	return &openAIAdapter{id: d.ID, client: openai.NewClient(opts...), tokens: tokens}
}

func (a *openAIAdapter) Complete(ctx context.Context, model string, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.History)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.History {
		if m.Role == RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(req.UserTurn))

	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if a.tokens == legacyMaxTokens {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	} else {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", a.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s: no choices in response", generation.ErrUpstreamMalformed, a.id)
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *openAIAdapter) classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &generation.UpstreamHTTPError{
			Provider:   string(a.id),
			StatusCode: apiErr.StatusCode,
			Body:       redact.String(apiErr.Message),
		}
	}
	return transportError(a.id, err)
}

// transportError classifies an SDK error that carried no HTTP status.
func transportError(id provider.ID, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w: %s: %s", generation.ErrUpstreamMalformed, id, redact.Error(err))
	}
	return fmt.Errorf("%w: %s: %s", generation.ErrTransport, id, redact.Error(err))
}
