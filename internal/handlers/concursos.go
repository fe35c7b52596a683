package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"concursos/internal/auth"
	"concursos/internal/pipeline"
	"concursos/models"
)

// parseListingParams reads the shared listing query parameters: status tab,
// sort key and direction.
func parseListingParams(r *http.Request) (pipeline.Status, pipeline.SortKey) {
	status := pipeline.StatusAtivos
	if r.URL.Query().Get("status") == string(pipeline.StatusExpirados) {
		status = pipeline.StatusExpirados
	}

	// Default matches the source ordering: newest publications first.
	key := pipeline.SortKey{Field: pipeline.SortPublicacao, Desc: true}
	switch r.URL.Query().Get("sort") {
	case string(pipeline.SortPrazo):
		key = pipeline.SortKey{Field: pipeline.SortPrazo}
	case string(pipeline.SortProcedimento):
		key = pipeline.SortKey{Field: pipeline.SortProcedimento}
	case string(pipeline.SortPublicacao):
		key = pipeline.SortKey{Field: pipeline.SortPublicacao}
	}
	switch r.URL.Query().Get("dir") {
	case "asc":
		key.Desc = false
	case "desc":
		key.Desc = true
	}
	return status, key
}

// GetConcursosHandler lists concursos. Free-text search narrows the collection
// server-side first; the status partition, the caller's selected custom
// filters and the sort are then applied to the narrowed set.
func (h *Handler) GetConcursosHandler(w http.ResponseWriter, r *http.Request) {
	status, key := parseListingParams(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	var filtros []models.Filtro
	if raw := r.URL.Query().Get("filters"); raw != "" {
		userID := auth.UserID(r.Context())
		if userID == "" {
			h.respondError(w, http.StatusUnauthorized, "authentication required to use saved filters")
			return
		}
		var err error
		filtros, err = h.Store.GetFiltrosByIDs(r.Context(), userID, strings.Split(raw, ","))
		if err != nil {
			h.Log.Error("load selected filters", zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "failed to load filters")
			return
		}
	}

	concursos, err := h.Store.GetConcursos(r.Context(), search)
	if err != nil {
		h.Log.Error("load concursos", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load concursos")
		return
	}

	result := pipeline.Run(concursos, status, filtros, key, time.Now())
	h.respondJSON(w, http.StatusOK, result)
}

// GetConcursoHandler returns one concurso by id.
func (h *Handler) GetConcursoHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "concursoId")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "concursoId is required")
		return
	}

	concurso, err := h.Store.GetConcurso(r.Context(), id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "concurso not found")
		return
	}
	h.respondJSON(w, http.StatusOK, concurso)
}

// GetEntidadeConcursosHandler lists the concursos issued by one entity.
func (h *Handler) GetEntidadeConcursosHandler(w http.ResponseWriter, r *http.Request) {
	nipc := chi.URLParam(r, "nipc")
	if nipc == "" {
		h.respondError(w, http.StatusBadRequest, "nipc is required")
		return
	}
	status, key := parseListingParams(r)

	concursos, err := h.Store.GetConcursosByNIPC(r.Context(), nipc)
	if err != nil {
		h.Log.Error("load entity concursos", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load concursos")
		return
	}

	result := pipeline.Run(concursos, status, nil, key, time.Now())
	h.respondJSON(w, http.StatusOK, result)
}
