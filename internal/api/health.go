package api

import "net/http"

// Healthz reports that the process is up.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Readyz reports ready once the settings table can be read.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Store.GetSettings(); err != nil {
		h.httpError(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
