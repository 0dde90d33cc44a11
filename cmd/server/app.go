package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lessonforge/internal/admission"
	"github.com/phrazzld/lessonforge/internal/chat"
	"github.com/phrazzld/lessonforge/internal/config"
	"github.com/phrazzld/lessonforge/internal/content"
	"github.com/phrazzld/lessonforge/internal/image"
	"github.com/phrazzld/lessonforge/internal/job"
	"github.com/phrazzld/lessonforge/internal/platform/httpclient"
	"github.com/phrazzld/lessonforge/internal/platform/otel"
	"github.com/phrazzld/lessonforge/internal/platform/postgres"
	"github.com/phrazzld/lessonforge/internal/provider"
	"github.com/phrazzld/lessonforge/internal/redact"
	"github.com/phrazzld/lessonforge/internal/service"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when no database is configured; admission then allows everything.
	db *sql.DB

	orchestrator service.Orchestrator

	shutdownTelemetry func(context.Context) error
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:            cfg,
		logger:            logger,
		shutdownTelemetry: func(context.Context) error { return nil },
	}

	shutdown, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	app.shutdownTelemetry = shutdown

	gate, err := app.setupAdmission(ctx)
	if err != nil {
		app.cleanup(ctx)
		return nil, err
	}

	app.orchestrator, err = buildOrchestrator(ctx, cfg, gate, logger)
	if err != nil {
		app.cleanup(ctx)
		return nil, err
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupAdmission connects the credit ledger when a database is configured.
func (app *application) setupAdmission(ctx context.Context) (admission.Gate, error) {
	if app.config.Database.URL == "" {
		app.logger.Warn("no database configured, admitting every request")
		return admission.AllowAll, nil
	}

	db, err := postgres.Open(ctx, app.config.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %s", redact.Error(err))
	}
	app.db = db

	if err := postgres.Migrate(ctx, db, app.logger); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	app.logger.Info("Database connection established")

	return postgres.NewCreditLedger(db), nil
}

// buildOrchestrator wires the providers, pipelines and normalizer behind the gate.
func buildOrchestrator(
	ctx context.Context,
	cfg *config.Config,
	gate admission.Gate,
	logger *slog.Logger,
) (service.Orchestrator, error) {
	registry, err := provider.FromConfig(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider registry: %w", err)
	}

	client := httpclient.New(cfg.Timeouts.Connect())

	dispatcher, err := chat.NewDispatcher(ctx, registry, client.HTTPClient(), chat.Timeouts{
		Chat:     cfg.Timeouts.Chat(),
		LongForm: cfg.Timeouts.LongForm(),
	}, logger.With("component", "chat_dispatcher"))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat dispatcher: %w", err)
	}

	poller := job.NewPoller(cfg.Jobs.MaxAttempts, cfg.Jobs.PollInterval())
	images := image.NewFromConfig(registry, client, poller, cfg.Timeouts, logger.With("component", "image_pipeline"))

	youtube, _ := registry.Lookup(provider.YouTube)
	validator := content.NewYouTubeValidator(youtube, client, cfg.Normalize.ValidationBatchSize, cfg.Timeouts.Validation())
	normalizer := content.NewNormalizer(validator, cfg.Normalize.MaxInputBytes, logger.With("component", "normalizer"))

	for _, id := range []provider.ID{
		provider.OpenAI, provider.Anthropic, provider.Gemini, provider.OpenRouter,
		provider.Replicate, provider.RunPod, provider.GoogleImages, provider.YouTube,
	} {
		d, _ := registry.Lookup(id)
		logger.Debug("provider configuration", "provider_id", string(id), "configured", d.Configured())
	}

	orch, err := service.NewOrchestrator(gate, dispatcher, images, normalizer, service.Limits{
		Costs:         cfg.Admission,
		Illustrations: cfg.Illustrations,
		MaxInputBytes: cfg.Normalize.MaxInputBytes,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return orch, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup(ctx context.Context) {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", redact.Error(err))
		}
	}

	if err := app.shutdownTelemetry(ctx); err != nil {
		app.logger.Error("Error flushing telemetry", "error", redact.Error(err))
	}

	app.logger.Info("Application shutdown completed")
}
