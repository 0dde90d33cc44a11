package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/provider"
)

type anthropicAdapter struct {
	id     provider.ID
	client anthropic.Client
}

func newAnthropicAdapter(d provider.Descriptor, httpClient *http.Client) *anthropicAdapter {
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
	return &anthropicAdapter{id: d.ID, client: anthropic.NewClient(opts...)}
}

func (a *anthropicAdapter) Complete(ctx context.Context, model string, req Request) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, m := range req.History {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserTurn)))

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &generation.UpstreamHTTPError{
				Provider:   string(a.id),
				StatusCode: apiErr.StatusCode,
				Body:       http.StatusText(apiErr.StatusCode),
			}
		}
		return "", transportError(a.id, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
