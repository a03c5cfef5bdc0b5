// Package api serves the board over a small JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/opsboard/internal/activity"
	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/board"
	apperrors "github.com/julianstephens/opsboard/internal/errors"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/notifier"
	"github.com/julianstephens/opsboard/internal/presence"
	"github.com/julianstephens/opsboard/internal/schedule"
	"github.com/julianstephens/opsboard/internal/storage"
	"github.com/julianstephens/opsboard/internal/tracking"
	"github.com/julianstephens/opsboard/internal/utils"
)

// PINHeader carries the supervisor or operator PIN.
const PINHeader = "X-Opsboard-PIN"

var validate = validator.New()

// Store is the storage surface the handlers read directly.
type Store interface {
	board.Reader
	GetSettings() (models.Settings, error)
	GetProfile(username string) (models.Profile, error)
	GetRecentActivity(limit int) ([]models.ActivityLogEntry, error)
}

// Deps wires the handlers to the services.
type Deps struct {
	Store      Store
	Loader     *board.Loader
	Tracking   *tracking.Service
	Schedule   *schedule.Service
	Presence   presence.Service
	Recorder   *activity.Recorder
	Dispatcher *notifier.Dispatcher
	Reviews    *board.Reviews
	Calendar   utils.Calendar
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	Deps
}

func NewHandlers(d Deps) *Handlers {
	return &Handlers{Deps: d}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Warn("Failed to write response", "error", err)
		}
	}
}

func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJSON(w, code, ErrorResponse{Error: message, Code: strconv.Itoa(code)})
}

// fail maps a service error to a status code.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		code = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, tracking.ErrUnknownBlock),
		errors.Is(err, tracking.ErrUnknownTask):
		code = http.StatusNotFound
	case errors.Is(err, auth.ErrPINRequired), errors.Is(err, auth.ErrInvalidPIN):
		code = http.StatusUnauthorized
	case errors.Is(err, auth.ErrSupervisorPINUnset):
		code = http.StatusForbidden
	}
	if code == http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.httpError(w, "Internal error", code)
		return
	}
	h.httpError(w, err.Error(), code)
}

// decode reads a JSON body into v and validates it.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(v); err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// snapshot reloads the board, falling back to the last good state.
func (h *Handlers) snapshot(w http.ResponseWriter, r *http.Request) (*board.Snapshot, bool) {
	snap, err := h.Loader.Load()
	if snap == nil {
		h.fail(w, r, err)
		return nil, false
	}
	if err != nil {
		w.Header().Set("X-Opsboard-Stale", "true")
	}
	return snap, true
}

func (h *Handlers) online(id string) bool {
	return h.Presence != nil && h.Presence.IsOnline(id)
}
