package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/lessonforge/internal/admission"
	"github.com/phrazzld/lessonforge/internal/chat"
	"github.com/phrazzld/lessonforge/internal/config"
	"github.com/phrazzld/lessonforge/internal/content"
	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/image"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
)

// ChatDispatcher sends one chat request to a provider.
type ChatDispatcher interface {
	Dispatch(ctx context.Context, providerID string, req chat.Request) (chat.Result, error)
}

// ImageSynthesizer runs the image fallback chain. It never fails; an empty
// string means no step produced an image.
type ImageSynthesizer interface {
	Synthesize(ctx context.Context, prompt string, mode image.Mode) string
}

// MarkupNormalizer validates and rewrites generated markup.
type MarkupNormalizer interface {
	Normalize(ctx context.Context, req content.Request) (content.Result, error)
}

// Caller identifies who a request is admitted for.
type Caller struct {
	AccountID string
	// RequestID is the idempotency key; retries with the same id are debited once.
	RequestID uuid.UUID
}

// IllustrationUnit is one piece of content that needs an image.
type IllustrationUnit struct {
	ID     string
	Prompt string
}

// Illustration is the image produced for a unit; ImageURL may be empty.
type Illustration struct {
	ID       string
	ImageURL string
}

// Limits bounds what the orchestrator accepts and what each operation costs.
type Limits struct {
	Costs         config.AdmissionConfig
	Illustrations config.IllustrationsConfig
	MaxInputBytes int
}

// Orchestrator is the entry point for every generation operation. Each method
// admits the request first and runs nothing unless admission succeeds.
type Orchestrator interface {
	// Chat dispatches a chat request to providerID, or the default provider.
	Chat(ctx context.Context, caller Caller, providerID string, req chat.Request) (chat.Result, error)

	// SynthesizeImage runs the fallback chain for one prompt.
	SynthesizeImage(ctx context.Context, caller Caller, prompt string, mode image.Mode) (string, error)

	// Illustrate runs one fallback chain per unit under a single admission.
	Illustrate(ctx context.Context, caller Caller, mode image.Mode, units []IllustrationUnit) ([]Illustration, error)

	// Normalize rewrites generated markup.
	Normalize(ctx context.Context, caller Caller, req content.Request) (content.Result, error)
}

// OrchestratorError wraps failures from the orchestrator with the operation
// that produced them.
type OrchestratorError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for OrchestratorError.
func (e *OrchestratorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *OrchestratorError) Unwrap() error {
	return e.Err
}

type orchestrator struct {
	gate       admission.Gate
	chat       ChatDispatcher
	images     ImageSynthesizer
	normalizer MarkupNormalizer
	limits     Limits
	logger     *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
// It returns an error if any of the required dependencies are nil.
// A nil gate admits everything.
func NewOrchestrator(
	gate admission.Gate,
	dispatcher ChatDispatcher,
	images ImageSynthesizer,
	normalizer MarkupNormalizer,
	limits Limits,
	logger *slog.Logger,
) (Orchestrator, error) {
	switch {
	case dispatcher == nil:
		return nil, &OrchestratorError{Operation: "create_orchestrator", Message: "dispatcher cannot be nil"}
	case images == nil:
		return nil, &OrchestratorError{Operation: "create_orchestrator", Message: "image synthesizer cannot be nil"}
	case normalizer == nil:
		return nil, &OrchestratorError{Operation: "create_orchestrator", Message: "normalizer cannot be nil"}
	case logger == nil:
		return nil, &OrchestratorError{Operation: "create_orchestrator", Message: "logger cannot be nil"}
	}
	if gate == nil {
		gate = admission.AllowAll
	}
	if limits.Illustrations.Concurrency <= 0 {
		limits.Illustrations.Concurrency = 1
	}

	return &orchestrator{
		gate:       gate,
		chat:       dispatcher,
		images:     images,
		normalizer: normalizer,
		limits:     limits,
		logger:     logger.With(slog.String("component", "orchestrator")),
	}, nil
}

func (o *orchestrator) admit(ctx context.Context, caller Caller, op admission.Operation, cost int64) error {
	err := admission.Enforce(ctx, o.gate, admission.Request{
		AccountID: caller.AccountID,
		RequestID: caller.RequestID,
		Operation: op,
		Cost:      cost,
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, o.logger).WarnContext(ctx, "request not admitted",
			slog.String("operation", string(op)),
			slog.String("error_code", generation.Code(err)))
		if errors.Is(err, generation.ErrAdmissionDenied) {
			return err
		}
		return &OrchestratorError{Operation: string(op), Message: "admission check failed", Err: err}
	}
	return nil
}

// Chat implements Orchestrator.
func (o *orchestrator) Chat(ctx context.Context, caller Caller, providerID string, req chat.Request) (chat.Result, error) {
	if err := req.Validate(); err != nil {
		return chat.Result{}, err
	}
	if err := o.admit(ctx, caller, admission.OperationChat, o.limits.Costs.ChatCost); err != nil {
		return chat.Result{}, err
	}
	return o.chat.Dispatch(ctx, providerID, req)
}

// SynthesizeImage implements Orchestrator. Mode none returns immediately
// without admission.
func (o *orchestrator) SynthesizeImage(ctx context.Context, caller Caller, prompt string, mode image.Mode) (string, error) {
	if mode == image.ModeNone {
		return "", nil
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", generation.ErrInvalidRequest)
	}
	if err := o.admit(ctx, caller, admission.OperationImage, o.limits.Costs.ImageCost); err != nil {
		return "", err
	}
	return o.images.Synthesize(ctx, prompt, mode), nil
}

// Illustrate implements Orchestrator. Results are returned in unit order.
func (o *orchestrator) Illustrate(
	ctx context.Context,
	caller Caller,
	mode image.Mode,
	units []IllustrationUnit,
) ([]Illustration, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: at least one unit is required", generation.ErrInvalidRequest)
	}
	if limit := o.limits.Illustrations.MaxUnits; limit > 0 && len(units) > limit {
		return nil, fmt.Errorf("%w: %d units exceeds limit of %d", generation.ErrInvalidRequest, len(units), limit)
	}

	out := make([]Illustration, len(units))
	runnable := make([]int, 0, len(units))
	for i, u := range units {
		out[i].ID = u.ID
		if strings.TrimSpace(u.Prompt) != "" {
			runnable = append(runnable, i)
		}
	}
	if mode == image.ModeNone || len(runnable) == 0 {
		return out, nil
	}

	// Units with a blank prompt are never synthesized and are not charged.
	cost := o.limits.Costs.ImageCost * int64(len(runnable))
	if err := o.admit(ctx, caller, admission.OperationIllustration, cost); err != nil {
		return nil, err
	}

	var g errgroup.Group
	g.SetLimit(o.limits.Illustrations.Concurrency)
	for _, i := range runnable {
		u := units[i]
		g.Go(func() error {
			out[i].ImageURL = o.images.Synthesize(ctx, u.Prompt, mode)
			return nil
		})
	}
	_ = g.Wait()

	produced := 0
	for _, ill := range out {
		if ill.ImageURL != "" {
			produced++
		}
	}
	logger.FromContextOrDefault(ctx, o.logger).InfoContext(ctx, "illustrations completed",
		slog.Int("units", len(units)),
		slog.Int("produced", produced),
		slog.String("mode", string(mode)))

	return out, nil
}

// Normalize implements Orchestrator. Oversized input is rejected before admission.
func (o *orchestrator) Normalize(ctx context.Context, caller Caller, req content.Request) (content.Result, error) {
	if o.limits.MaxInputBytes > 0 && len(req.HTML) > o.limits.MaxInputBytes {
		return content.Result{}, fmt.Errorf("%w: %d bytes exceeds limit of %d",
			generation.ErrInputTooLarge, len(req.HTML), o.limits.MaxInputBytes)
	}
	if err := o.admit(ctx, caller, admission.OperationNormalize, o.limits.Costs.NormalizeCost); err != nil {
		return content.Result{}, err
	}
	return o.normalizer.Normalize(ctx, req)
}
