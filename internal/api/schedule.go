package api

import (
	"net/http"

	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

// SupervisorOnly rejects requests without a valid supervisor PIN header.
func (h *Handlers) SupervisorOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		settings, err := h.Store.GetSettings()
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if err := auth.VerifySupervisor(settings, r.Header.Get(PINHeader)); err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PutSchedule handles PUT /api/operators/{username}/schedule.
func (h *Handlers) PutSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !h.decode(w, r, &req) {
		return
	}

	preserve := 0
	if req.PreserveDays != nil {
		preserve = *req.PreserveDays
	} else if settings, err := h.Store.GetSettings(); err == nil {
		preserve = settings.SnapshotPreserveDays
	}

	blocks := make([]models.ScheduleBlock, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		block := models.ScheduleBlock{
			ID:       b.ID,
			Hour:     b.Hour,
			Label:    b.Label,
			Priority: constants.Priority(b.Priority),
			Category: b.Category,
		}
		for _, t := range b.Tasks {
			block.Tasks = append(block.Tasks, models.Task{ID: t.ID, Label: t.Label})
		}
		blocks = append(blocks, block)
	}

	saved, err := h.Schedule.Save(r.Context(), "supervisor", r.PathValue("username"), blocks, preserve)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, saved)
}
