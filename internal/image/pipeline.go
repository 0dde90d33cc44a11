package image

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
	"github.com/phrazzld/lessonforge/internal/provider"
	"github.com/phrazzld/lessonforge/internal/redact"
)

var tracer = otel.Tracer("github.com/phrazzld/lessonforge/internal/image")

// Strategy is one step of the fallback chain.
type Strategy interface {
	// ID names the provider backing the strategy.
	ID() provider.ID
	// Available reports whether the strategy's credentials are present.
	Available() bool
	// Generate returns an acceptable image URL or an error.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pipeline tries strategies in order until one yields a URL.
type Pipeline struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewPipeline creates a Pipeline over strategies in the order given.
func NewPipeline(logger *slog.Logger, strategies ...Strategy) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{strategies: strategies, logger: logger}
}

// Synthesize returns an image URL for prompt, or "" when no permitted strategy
// produced one. Steps run sequentially; once a step succeeds no later step runs.
// Step failures are logged and swallowed.
func (p *Pipeline) Synthesize(ctx context.Context, prompt string, mode Mode) string {
	if mode == ModeNone {
		return ""
	}

	ctx, span := tracer.Start(ctx, "image.synthesize")
	defer span.End()
	span.SetAttributes(attribute.String("image.mode", string(mode)))

	log := logger.FromContextOrDefault(ctx, p.logger).With(slog.String("mode", string(mode)))

	for i, s := range p.strategies {
		id := s.ID()
		if !mode.allows(id) {
			continue
		}
		if !s.Available() {
			log.DebugContext(ctx, "image strategy skipped: not configured",
				slog.String("provider_id", string(id)))
			continue
		}
		if ctx.Err() != nil {
			log.WarnContext(ctx, "image synthesis abandoned", slog.String("error", ctx.Err().Error()))
			return ""
		}

		url, err := s.Generate(ctx, prompt)
		if err == nil && url == "" {
			err = generation.ErrNoAcceptableResult
		}
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, generation.ErrNoAcceptableResult) {
				level = slog.LevelInfo
			}
			log.Log(ctx, level, "image strategy produced no image",
				slog.String("provider_id", string(id)),
				slog.Int("step", i+1),
				slog.String("error_code", generation.Code(err)),
				slog.String("error", redact.Error(err)))
			continue
		}

		span.SetAttributes(attribute.String("provider.id", string(id)))
		log.InfoContext(ctx, "image synthesized",
			slog.String("provider_id", string(id)),
			slog.Int("step", i+1))
		return url
	}

	log.InfoContext(ctx, "no image strategy produced an image")
	return ""
}
