// Package http provides the HTTP handlers of the AI gateway proxy.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
	"github.com/atinyakov/WardrobeKeeper/internal/service"
)

const (
	msgNotConfigured    = "Server configuration error: Gemini API key not configured"
	msgKeyNotConfigured = "API key not configured"
	msgFailed           = "Failed to process request"
	msgValidateFailed   = "Failed to validate API key"
	msgBadBody          = "Invalid request body"
	msgTooLarge         = "Request body too large"
)

// GatewayService defines the proxy operations required by the GatewayHandler.
type GatewayService interface {
	// Health reports liveness and whether a credential is configured.
	Health() models.HealthStatus
	// Generate forwards a validated request upstream and returns the
	// provider's JSON envelope. Errors are service.ErrNotConfigured,
	// wrapped service.ErrInvalidRequest, *models.UpstreamError or a
	// transport failure.
	Generate(ctx context.Context, req models.GenerateRequest) ([]byte, error)
	// Validate asks the provider whether the configured credential works.
	Validate(ctx context.Context) (bool, error)
}

// UpstreamObserver records the outcome of calls that reached the provider.
type UpstreamObserver interface {
	ObserveUpstream(op, outcome string)
}

// GatewayHandler serves the health, generate and validate endpoints.
type GatewayHandler struct {
	Service GatewayService
	// Observer is optional.
	Observer UpstreamObserver
	// Logger is optional.
	Logger *zap.Logger
}

// Health handles GET /api/health.
func (h *GatewayHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Health())
}

// Generate handles POST /api/gemini/generate.
// It decodes {model?, prompt, images?}, forwards it through the service and
// relays the upstream envelope, or maps the failure to a status code.
func (h *GatewayHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}

	envelope, err := h.Service.Generate(r.Context(), req)
	var upErr *models.UpstreamError
	switch {
	case err == nil:
		h.observe("generate", "ok")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(envelope)
	case errors.Is(err, service.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, msgNotConfigured)
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upErr):
		h.observe("generate", "rejected")
		writeError(w, upErr.StatusCode, upErr.Message)
	default:
		h.observe("generate", "error")
		h.logger().Error("generate failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgFailed)
	}
}

// Validate handles GET /api/gemini/validate.
func (h *GatewayHandler) Validate(w http.ResponseWriter, r *http.Request) {
	valid, err := h.Service.Validate(r.Context())
	switch {
	case err == nil:
		h.observe("validate", "ok")
		writeJSON(w, http.StatusOK, models.ValidateResponse{Valid: valid})
	case errors.Is(err, service.ErrNotConfigured):
		writeJSON(w, http.StatusInternalServerError, models.ValidateResponse{Error: msgKeyNotConfigured})
	default:
		h.observe("validate", "error")
		h.logger().Error("validate failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ValidateResponse{Error: msgValidateFailed})
	}
}

func (h *GatewayHandler) observe(op, outcome string) {
	if h.Observer != nil {
		h.Observer.ObserveUpstream(op, outcome)
	}
}

func (h *GatewayHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
