package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/provider"
)

// Role is the author of a history turn.
type Role string

// Roles accepted in history.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Bounds on request parameters.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 64
	MaxMaxTokens   = 8000
)

// Message is one prior turn of the conversation.
type Message struct {
	Role    Role   `validate:"required,oneof=user assistant"`
	Content string `validate:"required"`
}

// Request is a provider-agnostic chat request.
type Request struct {
	SystemPrompt string
	History      []Message `validate:"dive"`
	UserTurn     string    `validate:"required"`
	Temperature  float64   `validate:"gte=0,lte=2"`
	MaxTokens    int       `validate:"gte=64,lte=8000"`
	// LongForm selects the long-form model and timeout.
	LongForm bool
}

// Result is a successful completion. It is never partially populated.
type Result struct {
	Text       string
	ProviderID provider.ID
}

var validate = validator.New()

// Validate checks the request against its bounds.
func (r Request) Validate() error {
	if strings.TrimSpace(r.UserTurn) == "" {
		return fmt.Errorf("%w: user turn is required", generation.ErrInvalidRequest)
	}
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed on '%s'", generation.ErrInvalidRequest, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", generation.ErrInvalidRequest, err)
	}
	return nil
}
