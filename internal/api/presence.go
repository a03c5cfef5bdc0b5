package api

import "net/http"

// Heartbeat handles POST /api/presence/{username}.
func (h *Handlers) Heartbeat(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	if _, err := h.Store.GetProfile(username); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Presence.Heartbeat(r.Context(), username); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leave handles DELETE /api/presence/{username}.
func (h *Handlers) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.Presence.Leave(r.Context(), r.PathValue("username")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPresence handles GET /api/presence.
func (h *Handlers) ListPresence(w http.ResponseWriter, r *http.Request) {
	online := h.Presence.ActiveSet()
	if online == nil {
		online = []string{}
	}
	h.respondJSON(w, http.StatusOK, PresenceResponse{Online: online})
}
