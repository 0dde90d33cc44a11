package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
	"github.com/phrazzld/lessonforge/internal/provider"
	"github.com/phrazzld/lessonforge/internal/redact"
)

var tracer = otel.Tracer("github.com/phrazzld/lessonforge/internal/chat")

// Timeouts bounds a single upstream call by purpose.
type Timeouts struct {
	Chat     time.Duration
	LongForm time.Duration
}

// Dispatcher routes chat requests to provider adapters.
type Dispatcher struct {
	registry *provider.Registry
	adapters map[provider.ID]Adapter
	timeouts Timeouts
	logger   *slog.Logger
}

// NewDispatcher builds an adapter for every configured chat provider in the registry.
// Providers without a credential get no adapter and dispatch to them reports
// generation.ErrProviderNotConfigured.
func NewDispatcher(
	ctx context.Context,
	registry *provider.Registry,
	httpClient *http.Client,
	timeouts Timeouts,
	logger *slog.Logger,
) (*Dispatcher, error) {
	adapters := make(map[provider.ID]Adapter)
	for _, id := range []provider.ID{provider.OpenAI, provider.OpenRouter, provider.Anthropic, provider.Gemini} {
		d, ok := registry.Lookup(id)
		if !ok || !d.Configured() {
			continue
		}
		a, err := newAdapter(ctx, d, httpClient)
		if err != nil {
			return nil, err
		}
		adapters[id] = a
	}
	return NewDispatcherWithAdapters(registry, adapters, timeouts, logger), nil
}

// NewDispatcherWithAdapters creates a Dispatcher over explicit adapters.
func NewDispatcherWithAdapters(
	registry *provider.Registry,
	adapters map[provider.ID]Adapter,
	timeouts Timeouts,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		adapters: adapters,
		timeouts: timeouts,
		logger:   logger,
	}
}

// Dispatch resolves providerID (falling back to the default chat provider for
// unknown or empty ids), makes exactly one upstream call, and returns the reply.
// Every call produces exactly one log entry carrying the provider id and status.
func (d *Dispatcher) Dispatch(ctx context.Context, providerID string, req Request) (Result, error) {
	desc := d.registry.ResolveChat(providerID)
	log := logger.FromContextOrDefault(ctx, d.logger).With(
		slog.String("provider_id", string(desc.ID)),
		slog.String("requested_provider_id", providerID),
		slog.Bool("long_form", req.LongForm),
	)

	if err := req.Validate(); err != nil {
		log.WarnContext(ctx, "chat request rejected",
			slog.Int("status", 0),
			slog.String("error_code", generation.Code(err)))
		return Result{}, err
	}

	adapter, ok := d.adapters[desc.ID]
	if !ok || !desc.Configured() {
		err := fmt.Errorf("%w: %s", generation.ErrProviderNotConfigured, desc.ID)
		log.WarnContext(ctx, "chat provider not configured",
			slog.Int("status", 0),
			slog.String("error_code", generation.Code(err)))
		return Result{}, err
	}

	ctx, span := tracer.Start(ctx, "chat.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("provider.id", string(desc.ID)))

	timeout := d.timeouts.Chat
	if req.LongForm {
		timeout = d.timeouts.LongForm
	}
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := adapter.Complete(callCtx, desc.ModelFor(req.LongForm), req)
	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%w: %s: empty completion", generation.ErrUpstreamMalformed, desc.ID)
	}
	if err != nil && generation.Code(err) == generation.CodeInternal {
		err = fmt.Errorf("%w: %s: %s", generation.ErrTransport, desc.ID, redact.Error(err))
	}

	attrs := []any{
		slog.Int("status", generation.HTTPStatus(err)),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		span.SetStatus(codes.Error, generation.Code(err))
		log.ErrorContext(ctx, "chat dispatch failed",
			append(attrs,
				slog.String("error_code", generation.Code(err)),
				slog.String("error", redact.Error(err)))...)
		return Result{}, err
	}

	log.InfoContext(ctx, "chat dispatch completed", attrs...)
	return Result{Text: text, ProviderID: desc.ID}, nil
}
