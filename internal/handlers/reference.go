package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// GetDistritosHandler lists the known districts for filter creation.
func (h *Handler) GetDistritosHandler(w http.ResponseWriter, r *http.Request) {
	distritos, err := h.Store.GetDistritos(r.Context())
	if err != nil {
		h.Log.Error("load districts", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load districts")
		return
	}
	h.respondJSON(w, http.StatusOK, distritos)
}

// GetMunicipiosHandler lists municipalities, optionally narrowed by the
// distrito query parameter.
func (h *Handler) GetMunicipiosHandler(w http.ResponseWriter, r *http.Request) {
	municipios, err := h.Store.GetMunicipios(r.Context(), r.URL.Query().Get("distrito"))
	if err != nil {
		h.Log.Error("load municipalities", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to load municipalities")
		return
	}
	h.respondJSON(w, http.StatusOK, municipios)
}
