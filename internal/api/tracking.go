package api

import (
	"net/http"

	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/tracking"
)

// authorizeOperator lets the operator's own PIN or the supervisor PIN through.
// Operators without a PIN need neither.
func (h *Handlers) authorizeOperator(w http.ResponseWriter, r *http.Request, username string) (actor string, ok bool) {
	p, err := h.Store.GetProfile(username)
	if err != nil {
		h.fail(w, r, err)
		return "", false
	}
	pin := r.Header.Get(PINHeader)
	if err := auth.VerifyOperator(p, pin); err == nil {
		return username, true
	}
	settings, err := h.Store.GetSettings()
	if err != nil {
		h.fail(w, r, err)
		return "", false
	}
	if err := auth.VerifySupervisor(settings, pin); err == nil {
		return "supervisor", true
	}
	h.httpError(w, "Invalid PIN", http.StatusUnauthorized)
	return "", false
}

// ToggleTask handles POST /api/operators/{username}/blocks/{blockID}/toggle.
func (h *Handlers) ToggleTask(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !h.decode(w, r, &req) {
		return
	}
	username := r.PathValue("username")
	actor, ok := h.authorizeOperator(w, r, username)
	if !ok {
		return
	}
	rec, done, err := h.Tracking.ToggleTask(r.Context(), actor, username, r.PathValue("blockID"), req.TaskID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, ToggleResponse{Record: rec, Completed: done})
}

// PutReport handles PUT /api/operators/{username}/tracking/{key}/report.
func (h *Handlers) PutReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if !h.decode(w, r, &req) {
		return
	}
	username := r.PathValue("username")
	actor, ok := h.authorizeOperator(w, r, username)
	if !ok {
		return
	}
	key := r.PathValue("key")
	save := h.Tracking.SetReport
	if req.Submit {
		save = h.Tracking.SubmitReport
	}
	rec, err := save(r.Context(), actor, username, key, req.Report)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}

// PutJustification handles PUT /api/operators/{username}/tracking/{key}/justification.
func (h *Handlers) PutJustification(w http.ResponseWriter, r *http.Request) {
	var req JustificationRequest
	if !h.decode(w, r, &req) {
		return
	}
	username := r.PathValue("username")
	actor, ok := h.authorizeOperator(w, r, username)
	if !ok {
		return
	}
	rec, err := h.Tracking.Justify(r.Context(), actor, username, r.PathValue("key"), tracking.Justification{
		Reason:   constants.DelayReason(req.Reason),
		Report:   req.Report,
		Escalate: req.Escalate,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, rec)
}
