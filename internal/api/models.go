package api

import (
	"fmt"

	"github.com/phrazzld/lessonforge/internal/chat"
	"github.com/phrazzld/lessonforge/internal/content"
	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/service"
)

// Defaults applied to chat requests that omit the field.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1024
)

// ChatMessage is one turn of the conversation sent by the client.
type ChatMessage struct {
	Role    string `json:"role"    validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest defines the payload for the chat endpoint.
type ChatRequest struct {
	// ProviderID selects the chat provider; empty uses the configured default
	ProviderID  string        `json:"providerId"`
	Messages    []ChatMessage `json:"messages"    validate:"required,min=1,dive"`
	Temperature *float64      `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int          `json:"maxTokens"   validate:"omitempty,gte=64,lte=8000"`
	LongForm    bool          `json:"longForm"`
}

// ChatResponse defines the successful response for the chat endpoint.
type ChatResponse struct {
	Reply      string `json:"reply"`
	ProviderID string `json:"providerId"`
}

// ImageRequest defines the payload for the single image endpoint.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Mode   string `json:"mode"`
}

// ImageResponse carries the produced image URL, which may be empty.
type ImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// IllustrationUnitRequest is one unit that needs an image.
type IllustrationUnitRequest struct {
	ID     string `json:"id"     validate:"required"`
	Prompt string `json:"prompt"`
}

// IllustrationsRequest defines the payload for the batch illustration endpoint.
type IllustrationsRequest struct {
	Mode  string                    `json:"mode"`
	Units []IllustrationUnitRequest `json:"units" validate:"required,min=1,dive"`
}

// IllustrationResponse is the image produced for one unit.
type IllustrationResponse struct {
	ID       string `json:"id"`
	ImageURL string `json:"imageUrl"`
}

// IllustrationsResponse lists results in request order.
type IllustrationsResponse struct {
	Illustrations []IllustrationResponse `json:"illustrations"`
}

// NormalizeRequest defines the payload for the markup normalization endpoint.
type NormalizeRequest struct {
	HTML    string `json:"html"`
	Lang    string `json:"lang"`
	Target  string `json:"target"`
	DocKind string `json:"docKind"`
}

// NormalizeResponse carries the rewritten markup and what was changed.
// Issues are human-readable; IssueCodes holds the matching machine codes in
// the same order.
type NormalizeResponse struct {
	NormalizedHTML string   `json:"normalizedHtml"`
	Issues         []string `json:"issues"`
	IssueCodes     []string `json:"issueCodes"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// toChatRequest converts the wire conversation into a chat.Request.
// A leading system message becomes the system prompt and the final message
// must come from the user; everything between is history.
func toChatRequest(req ChatRequest) (chat.Request, error) {
	msgs := req.Messages
	out := chat.Request{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		LongForm:    req.LongForm,
	}
	if req.Temperature != nil {
		out.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}

	if len(msgs) > 0 && msgs[0].Role == "system" {
		out.SystemPrompt = msgs[0].Content
		msgs = msgs[1:]
	}
	if len(msgs) == 0 {
		return chat.Request{}, fmt.Errorf("%w: at least one user message is required", generation.ErrInvalidRequest)
	}

	last := msgs[len(msgs)-1]
	if last.Role != string(chat.RoleUser) {
		return chat.Request{}, fmt.Errorf("%w: final message must have role user", generation.ErrInvalidRequest)
	}
	out.UserTurn = last.Content

	for i, m := range msgs[:len(msgs)-1] {
		role := chat.Role(m.Role)
		if role != chat.RoleUser && role != chat.RoleAssistant {
			return chat.Request{}, fmt.Errorf("%w: message %d has role %s; system is only allowed first",
				generation.ErrInvalidRequest, i, m.Role)
		}
		out.History = append(out.History, chat.Message{Role: role, Content: m.Content})
	}

	return out, nil
}

func toIllustrationUnits(units []IllustrationUnitRequest) []service.IllustrationUnit {
	out := make([]service.IllustrationUnit, len(units))
	for i, u := range units {
		out[i] = service.IllustrationUnit{ID: u.ID, Prompt: u.Prompt}
	}
	return out
}

func toIllustrationsResponse(results []service.Illustration) IllustrationsResponse {
	resp := IllustrationsResponse{Illustrations: make([]IllustrationResponse, len(results))}
	for i, r := range results {
		resp.Illustrations[i] = IllustrationResponse{ID: r.ID, ImageURL: r.ImageURL}
	}
	return resp
}

func toNormalizeResponse(result content.Result) NormalizeResponse {
	resp := NormalizeResponse{
		NormalizedHTML: result.HTML,
		Issues:         make([]string, len(result.Issues)),
		IssueCodes:     make([]string, len(result.Issues)),
	}
	for i, issue := range result.Issues {
		resp.Issues[i] = issue.Message()
		resp.IssueCodes[i] = issue.Code
	}
	return resp
}
