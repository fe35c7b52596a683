package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ValidatorHandler proxies a tax-id lookup to the VIES service. The upstream
// JSON body is relayed verbatim on success; any upstream or transport failure
// collapses into one generic error. A missing taxId never reaches upstream.
func (h *Handler) ValidatorHandler(w http.ResponseWriter, r *http.Request) {
	taxID := strings.TrimSpace(r.URL.Query().Get("taxId"))
	if taxID == "" {
		h.respondError(w, http.StatusBadRequest, "taxId is required")
		return
	}

	body, err := h.Vies.Check(r.Context(), taxID)
	if err != nil {
		h.Log.Error("vies check", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "failed to validate the tax number, check it and try again")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
