package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/provider"
	"github.com/phrazzld/lessonforge/internal/redact"
)

type geminiAdapter struct {
	id     provider.ID
	client *genai.Client
}

func newGeminiAdapter(ctx context.Context, d provider.Descriptor, httpClient *http.Client) (*geminiAdapter, error) {
	cfg := &genai.ClientConfig{
		APIKey:     d.Credential.Reveal(),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if d.Endpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: d.Endpoint}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %s",
			generation.ErrProviderNotConfigured, redact.Error(err))
	}
	return &geminiAdapter{id: d.ID, client: client}, nil
}

func (a *geminiAdapter) Complete(ctx context.Context, model string, req Request) (string, error) {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, m := range req.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.UserTurn, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := a.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &generation.UpstreamHTTPError{
				Provider:   string(a.id),
				StatusCode: apiErr.Code,
				Body:       redact.String(apiErr.Status),
			}
		}
		return "", transportError(a.id, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: %s: nil response", generation.ErrUpstreamMalformed, a.id)
	}
	return resp.Text(), nil
}
