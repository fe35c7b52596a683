package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"concursos/internal/vies"
)

// ViesClient is the outbound validator dependency.
type ViesClient interface {
	Check(ctx context.Context, nipc string) ([]byte, error)
	Lookup(ctx context.Context, nipc string) (*vies.Result, error)
}

// Handler wraps the storage and the VIES client for all HTTP endpoints.
type Handler struct {
	Store StorageInterface
	Vies  ViesClient
	Log   *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(store StorageInterface, viesClient ViesClient, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Store: store, Vies: viesClient, Log: log}
}

// PingHandler answers "ok" for liveness checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Error("encode response", zap.Error(err))
	}
}

// respondError writes the failure as a JSON payload. Every failure is terminal
// for the user action; nothing is retried server-side.
func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}
