package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"concursos/internal/auth"
	"concursos/models"
)

type filtroRequest struct {
	Nome       string   `json:"nome"`
	Distrito   *string  `json:"distrito"`
	Municipios []string `json:"municipios"`
	Keywords   []string `json:"keywords"`
}

// decodeFiltroRequest reads and validates a filter payload. The name is the
// only required field; district and municipality values are free text.
func decodeFiltroRequest(r *http.Request) (*filtroRequest, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	var req filtroRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	req.Nome = strings.TrimSpace(req.Nome)
	if req.Distrito != nil && *req.Distrito == "" {
		req.Distrito = nil
	}
	return &req, nil
}

// GetFiltrosHandler lists the caller's saved filters, newest first.
func (h *Handler) GetFiltrosHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	filtros, err := h.Store.GetFiltrosByUser(r.Context(), userID)
	if err != nil {
		h.Log.Error("load filters", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load filters")
		return
	}
	h.respondJSON(w, http.StatusOK, filtros)
}

// CreateFiltroHandler saves a new named filter.
func (h *Handler) CreateFiltroHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	req, err := decodeFiltroRequest(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}
	if req.Nome == "" {
		h.respondError(w, http.StatusBadRequest, "nome is required")
		return
	}

	filtro := &models.Filtro{
		ID:         uuid.NewString(),
		UserID:     userID,
		Nome:       req.Nome,
		Distrito:   req.Distrito,
		Municipios: req.Municipios,
		Keywords:   req.Keywords,
	}
	if err := h.Store.CreateFiltro(r.Context(), filtro); err != nil {
		h.Log.Error("create filter", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to save filter")
		return
	}
	h.respondJSON(w, http.StatusOK, filtro)
}

// EditFiltroHandler updates a filter in place, preserving its identifier.
func (h *Handler) EditFiltroHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	filtroID := chi.URLParam(r, "filtroId")
	if filtroID == "" {
		h.respondError(w, http.StatusBadRequest, "filtroId is required")
		return
	}

	req, err := decodeFiltroRequest(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON format")
		return
	}
	if req.Nome == "" {
		h.respondError(w, http.StatusBadRequest, "nome is required")
		return
	}

	filtro, err := h.Store.GetFiltro(r.Context(), userID, filtroID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "filter not found")
		return
	}

	filtro.Nome = req.Nome
	filtro.Distrito = req.Distrito
	filtro.Municipios = req.Municipios
	filtro.Keywords = req.Keywords

	if err := h.Store.UpdateFiltro(r.Context(), filtro); err != nil {
		h.Log.Error("update filter", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to save filter")
		return
	}
	h.respondJSON(w, http.StatusOK, filtro)
}

// DeleteFiltroHandler removes one of the caller's filters.
func (h *Handler) DeleteFiltroHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	filtroID := chi.URLParam(r, "filtroId")
	if filtroID == "" {
		h.respondError(w, http.StatusBadRequest, "filtroId is required")
		return
	}

	if _, err := h.Store.GetFiltro(r.Context(), userID, filtroID); err != nil {
		h.respondError(w, http.StatusNotFound, "filter not found")
		return
	}

	if err := h.Store.DeleteFiltro(r.Context(), userID, filtroID); err != nil {
		h.Log.Error("delete filter", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to delete filter")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"deleted": filtroID})
}
