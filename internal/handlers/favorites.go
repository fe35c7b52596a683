package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"concursos/internal/auth"
	"concursos/internal/calendar"
	"concursos/internal/pipeline"
)

// FavoritosResponse is the favorite-set summary shown on the dashboard.
type FavoritosResponse struct {
	Favoritos []string `json:"favoritos"`
	Total     int      `json:"total"`
	Ativos    int      `json:"ativos"`
}

// GetFavoritosHandler returns the caller's favorite id set with active/total
// counts. A user with no settings row yet simply has no favorites.
func (h *Handler) GetFavoritosHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	settings, err := h.Store.GetUserSettings(r.Context(), userID)
	if err != nil {
		h.Log.Error("load user settings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	favoritos := []string(settings.Favoritos)
	if favoritos == nil {
		favoritos = []string{}
	}

	ativos := 0
	if len(favoritos) > 0 {
		concursos, err := h.Store.GetConcursosByIDs(r.Context(), favoritos)
		if err != nil {
			h.Log.Error("load favorited concursos", zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "failed to load favorites")
			return
		}
		ativos = pipeline.CountAtivos(concursos, time.Now())
	}

	h.respondJSON(w, http.StatusOK, FavoritosResponse{
		Favoritos: favoritos,
		Total:     len(favoritos),
		Ativos:    ativos,
	})
}

// ToggleFavoritoHandler adds or removes one concurso from the caller's
// favorite set and persists the whole array back. The read-modify-write is not
// atomic: concurrent toggles for the same user are last-write-wins.
func (h *Handler) ToggleFavoritoHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	concursoID := chi.URLParam(r, "concursoId")
	if concursoID == "" {
		h.respondError(w, http.StatusBadRequest, "concursoId is required")
		return
	}

	settings, err := h.Store.GetUserSettings(r.Context(), userID)
	if err != nil {
		h.Log.Error("load user settings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to update favorites")
		return
	}

	updated := make([]string, 0, len(settings.Favoritos)+1)
	removed := false
	for _, id := range settings.Favoritos {
		if id == concursoID {
			removed = true
			continue
		}
		updated = append(updated, id)
	}
	if !removed {
		updated = append(updated, concursoID)
	}

	if err := h.Store.SaveFavoritos(r.Context(), userID, updated); err != nil {
		h.Log.Error("save favorites", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to update favorites")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"favoritos": updated,
		"favorited": !removed,
	})
}

// GetFavoritosConcursosHandler lists the caller's favorited concursos through
// the same partition/sort pipeline as the main listing.
func (h *Handler) GetFavoritosConcursosHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	status, key := parseListingParams(r)

	settings, err := h.Store.GetUserSettings(r.Context(), userID)
	if err != nil {
		h.Log.Error("load user settings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	concursos, err := h.Store.GetConcursosByIDs(r.Context(), settings.Favoritos)
	if err != nil {
		h.Log.Error("load favorited concursos", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	result := pipeline.Run(concursos, status, nil, key, time.Now())
	h.respondJSON(w, http.StatusOK, result)
}

// GetCalendarioHandler projects the caller's favorited concursos onto the
// requested month's timeline.
func (h *Handler) GetCalendarioHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	now := time.Now()

	year := now.Year()
	month := now.Month()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			h.respondError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(m)
	}

	settings, err := h.Store.GetUserSettings(r.Context(), userID)
	if err != nil {
		h.Log.Error("load user settings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	concursos, err := h.Store.GetConcursosByIDs(r.Context(), settings.Favoritos)
	if err != nil {
		h.Log.Error("load favorited concursos", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	bars := calendar.Project(concursos, year, month, now)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": int(month),
		"bars":  bars,
	})
}
