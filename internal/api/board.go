package api

import (
	"net/http"
	"strconv"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/storage"
)

// GetBoard handles GET /api/board.
func (h *Handlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	date, hour := h.Calendar.Today(), h.Calendar.Hour()
	h.respondJSON(w, http.StatusOK, BoardResponse{
		Date:      date,
		Hour:      hour,
		Operators: snap.Days(date, hour, h.online),
	})
}

// GetToday handles GET /api/operators/{username}/today.
func (h *Handlers) GetToday(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	username := r.PathValue("username")
	day, found := snap.Day(username, h.Calendar.Today(), h.Calendar.Hour(), h.online)
	if !found {
		h.httpError(w, "Operator not found", http.StatusNotFound)
		return
	}
	h.respondJSON(w, http.StatusOK, day)
}

// GetWeekly handles GET /api/operators/{username}/weekly?days=N.
func (h *Handlers) GetWeekly(w http.ResponseWriter, r *http.Request) {
	days := constants.DefaultSeriesDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > constants.MaxSeriesDays {
			h.httpError(w, "days must be between 1 and 90", http.StatusBadRequest)
			return
		}
		days = n
	}

	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	username := r.PathValue("username")
	if _, found := snap.Profile(username); !found {
		h.httpError(w, "Operator not found", http.StatusNotFound)
		return
	}
	series, err := snap.Weekly(username, h.Calendar.Today(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, WeeklyResponse{Username: username, Average: aggregate.Average(series), Series: series})
}

// GetActivity handles GET /api/activity?limit=N.
func (h *Handlers) GetActivity(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.httpError(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		limit = n
	}
	entries, err := h.Store.GetRecentActivity(storage.ClampActivityLimit(limit))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, entries)
}
