package objstore

import (
	"net/http"
)

func (h *Handler) breakerMetrics(w http.ResponseWriter, r *http.Request) {
	if h.breaker == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "circuit breaker is not configured"})
		return
	}
	writeJSON(w, http.StatusOK, h.breaker.Metrics())
}

func (h *Handler) breakerReset(w http.ResponseWriter, r *http.Request) {
	if h.breaker == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "circuit breaker is not configured"})
		return
	}
	h.breaker.Reset()
	writeJSON(w, http.StatusNoContent, nil)
}
