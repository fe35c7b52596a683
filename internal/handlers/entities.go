package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"concursos/internal/auth"
	"concursos/internal/pipeline"
	"concursos/models"
)

// EntidadeSeguida is a followed entity with its recomputed active-tender count.
type EntidadeSeguida struct {
	NIPC                string `json:"nipc"`
	Entidade            string `json:"entidade"`
	ProcedimentosAtivos int    `json:"procedimentosAtivos"`
}

// GetEntidadesHandler lists all known entities for the follow dropdown.
func (h *Handler) GetEntidadesHandler(w http.ResponseWriter, r *http.Request) {
	entidades, err := h.Store.GetEntidades(r.Context())
	if err != nil {
		h.Log.Error("load entities", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load entities")
		return
	}
	h.respondJSON(w, http.StatusOK, entidades)
}

// GetEntidadesSeguidasHandler returns the entities the caller follows, each
// with the count of its currently active concursos. The count is recomputed on
// every call; an entity with no concursos simply counts zero.
func (h *Handler) GetEntidadesSeguidasHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	now := time.Now()

	settings, err := h.Store.GetUserSettings(r.Context(), userID)
	if err != nil {
		h.Log.Error("load user settings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load followed entities")
		return
	}

	entidades, err := h.Store.GetEntidadesByNIPCs(r.Context(), settings.Entidades)
	if err != nil {
		h.Log.Error("load followed entities", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load followed entities")
		return
	}

	seguidas := make([]EntidadeSeguida, 0, len(entidades))
	for _, e := range entidades {
		concursos, err := h.Store.GetConcursosByNIPC(r.Context(), e.NIPC)
		if err != nil {
			h.Log.Error("load entity concursos", zap.String("nipc", e.NIPC), zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "failed to load followed entities")
			return
		}
		seguidas = append(seguidas, EntidadeSeguida{
			NIPC:                e.NIPC,
			Entidade:            e.Entidade,
			ProcedimentosAtivos: pipeline.CountAtivos(concursos, now),
		})
	}

	h.respondJSON(w, http.StatusOK, seguidas)
}

// FollowEntidadeHandler adds an entity to the caller's followed list. The
// entity must already be known; unknown tax numbers go through the lookup
// endpoint instead.
func (h *Handler) FollowEntidadeHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	nipc := chi.URLParam(r, "nipc")
	if nipc == "" {
		h.respondError(w, http.StatusBadRequest, "nipc is required")
		return
	}

	if _, err := h.Store.GetEntidade(r.Context(), nipc); err != nil {
		h.respondError(w, http.StatusNotFound, "entity not found")
		return
	}

	if err := h.followNIPC(r, userID, nipc); err != nil {
		if err == errAlreadyFollowing {
			h.respondError(w, http.StatusConflict, "already following this entity")
			return
		}
		h.Log.Error("follow entity", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to follow entity")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"following": nipc})
}

// UnfollowEntidadeHandler removes an entity from the caller's followed list.
func (h *Handler) UnfollowEntidadeHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	nipc := chi.URLParam(r, "nipc")
	if nipc == "" {
		h.respondError(w, http.StatusBadRequest, "nipc is required")
		return
	}

	settings, err := h.Store.GetUserSettings(r.Context(), userID)
	if err != nil {
		h.Log.Error("load user settings", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to unfollow entity")
		return
	}

	updated := make([]string, 0, len(settings.Entidades))
	for _, n := range settings.Entidades {
		if n != nipc {
			updated = append(updated, n)
		}
	}

	if err := h.Store.SaveEntidadesSeguidas(r.Context(), userID, updated); err != nil {
		h.Log.Error("save followed entities", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to unfollow entity")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"entidades": updated})
}

// LookupEntidadeHandler resolves a tax number through VIES, registers the
// entity when valid and follows it for the caller. This is the flow for
// entities missing from the dropdown.
func (h *Handler) LookupEntidadeHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	nipc := strings.TrimSpace(r.URL.Query().Get("nipc"))
	if nipc == "" {
		h.respondError(w, http.StatusBadRequest, "nipc is required")
		return
	}

	result, err := h.Vies.Lookup(r.Context(), nipc)
	if err != nil {
		h.Log.Error("vies lookup", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to validate the tax number, check it and try again")
		return
	}
	if !result.IsValid {
		h.respondError(w, http.StatusNotFound, "tax number is invalid or unknown")
		return
	}

	entidade := &models.Entidade{NIPC: nipc, Entidade: result.Name}
	if err := h.Store.InsertEntidade(r.Context(), entidade); err != nil {
		h.Log.Error("insert entity", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to register entity")
		return
	}

	if err := h.followNIPC(r, userID, nipc); err != nil {
		if err == errAlreadyFollowing {
			h.respondError(w, http.StatusConflict, "already following this entity")
			return
		}
		h.Log.Error("follow entity", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to follow entity")
		return
	}

	h.respondJSON(w, http.StatusOK, entidade)
}

var errAlreadyFollowing = errors.New("already following")

// followNIPC appends a NIPC to the caller's followed list and upserts the
// whole array back. Same last-write-wins hazard as favorites.
func (h *Handler) followNIPC(r *http.Request, userID, nipc string) error {
	settings, err := h.Store.GetUserSettings(r.Context(), userID)
	if err != nil {
		return err
	}
	for _, n := range settings.Entidades {
		if n == nipc {
			return errAlreadyFollowing
		}
	}
	updated := append([]string(settings.Entidades), nipc)
	return h.Store.SaveEntidadesSeguidas(r.Context(), userID, updated)
}
