package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/lessonforge/internal/api/shared"
	"github.com/phrazzld/lessonforge/internal/content"
	"github.com/phrazzld/lessonforge/internal/generation"
	"github.com/phrazzld/lessonforge/internal/image"
	"github.com/phrazzld/lessonforge/internal/platform/logger"
	"github.com/phrazzld/lessonforge/internal/service"
)

// Request headers read by the generation endpoints.
const (
	AccountIDHeader      = "X-Account-ID"
	IdempotencyKeyHeader = "Idempotency-Key"
)

// envelopeBytes is the allowance for the JSON around the largest field.
const envelopeBytes = 64 << 10

// GenerationHandler handles the chat, image, illustration and normalization endpoints.
type GenerationHandler struct {
	orchestrator service.Orchestrator
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler. maxInputBytes is the
// markup ceiling; request bodies may exceed it by a fixed envelope.
func NewGenerationHandler(
	orchestrator service.Orchestrator,
	maxInputBytes int,
	logger *slog.Logger,
) *GenerationHandler {
	if orchestrator == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("orchestrator cannot be nil for GenerationHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for GenerationHandler")
	}

	return &GenerationHandler{
		orchestrator: orchestrator,
		maxBodyBytes: int64(maxInputBytes) + envelopeBytes,
		logger:       logger.With(slog.String("component", "generation_handler")),
	}
}

// Chat handles POST /api/chat requests.
func (h *GenerationHandler) Chat(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if !h.decode(w, r, &req) {
		return
	}

	chatReq, err := toChatRequest(req)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.orchestrator.Chat(r.Context(), caller, req.ProviderID, chatReq)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate reply")
		return
	}

	log.Debug("chat completed", slog.String("provider_id", string(result.ProviderID)))
	shared.RespondWithJSON(w, r, http.StatusOK, ChatResponse{
		Reply:      result.Text,
		ProviderID: string(result.ProviderID),
	})
}

// Images handles POST /api/images requests.
// An empty imageUrl is a successful response: no strategy produced an image.
func (h *GenerationHandler) Images(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req ImageRequest
	if !h.decode(w, r, &req) {
		return
	}

	mode, err := image.ParseMode(req.Mode)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid mode", err)
		return
	}

	url, err := h.orchestrator.SynthesizeImage(r.Context(), caller, req.Prompt, mode)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to synthesize image")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ImageResponse{ImageURL: url})
}

// Illustrations handles POST /api/illustrations requests.
func (h *GenerationHandler) Illustrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req IllustrationsRequest
	if !h.decode(w, r, &req) {
		return
	}

	mode, err := image.ParseMode(req.Mode)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid mode", err)
		return
	}

	results, err := h.orchestrator.Illustrate(r.Context(), caller, mode, toIllustrationUnits(req.Units))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to illustrate units")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toIllustrationsResponse(results))
}

// Normalize handles POST /api/normalize requests.
func (h *GenerationHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req NormalizeRequest
	if !h.decode(w, r, &req) {
		return
	}

	target, err := content.ParseTarget(req.Target)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid target", err)
		return
	}
	kind, err := content.ParseDocKind(req.DocKind)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid docKind", err)
		return
	}

	result, err := h.orchestrator.Normalize(r.Context(), caller, content.Request{
		HTML:    req.HTML,
		Lang:    req.Lang,
		Target:  target,
		DocKind: kind,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to normalize markup")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toNormalizeResponse(result))
}

// Health handles GET /health requests.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// decode reads and validates the JSON body, writing the error response on failure.
func (h *GenerationHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	if err := shared.DecodeJSON(r, v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			HandleAPIError(w, r, fmt.Errorf("%w: %v", generation.ErrInputTooLarge, err), "")
			return false
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format",
			fmt.Errorf("%w: %v", generation.ErrInvalidRequest, err))
		return false
	}

	if err := shared.ValidateRequest(v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err),
			fmt.Errorf("%w: %v", generation.ErrInvalidRequest, err))
		return false
	}
	return true
}

// caller extracts the admission account and idempotency key from the headers.
// A missing key gets a fresh one, so the request is debited exactly once.
func (h *GenerationHandler) caller(w http.ResponseWriter, r *http.Request) (service.Caller, bool) {
	caller := service.Caller{AccountID: strings.TrimSpace(r.Header.Get(AccountIDHeader))}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key == "" {
		caller.RequestID = uuid.New()
		return caller, true
	}

	id, err := uuid.Parse(key)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Idempotency-Key must be a UUID",
			fmt.Errorf("%w: malformed idempotency key", generation.ErrInvalidRequest))
		return service.Caller{}, false
	}
	caller.RequestID = id
	return caller, true
}
