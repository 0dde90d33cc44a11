package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/phrazzld/lessonforge/internal/api"
	"github.com/phrazzld/lessonforge/internal/config"
	apiMiddleware "github.com/phrazzld/lessonforge/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	handler := api.NewGenerationHandler(app.orchestrator, app.config.Normalize.MaxInputBytes, app.logger)
	return newRouter(handler, app.config.Server, app.logger)
}

// newRouter registers the routes. Inbound requests are traced with otelhttp
// before the trace middleware runs, so the log trace id matches the span.
func newRouter(handler *api.GenerationHandler, cfg config.ServerConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))

	r.Get("/health", api.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(time.Duration(cfg.RequestTimeoutSeconds) * time.Second))

		r.Post("/chat", handler.Chat)
		r.Post("/images", handler.Images)
		r.Post("/illustrations", handler.Illustrations)
		r.Post("/normalize", handler.Normalize)
	})

	return otelhttp.NewHandler(r, "lessonforge",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
}
