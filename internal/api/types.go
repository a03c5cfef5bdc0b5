package api

import (
	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/board"
	"github.com/julianstephens/opsboard/internal/models"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type ToggleRequest struct {
	TaskID string `json:"task_id" validate:"required"`
}

type ToggleResponse struct {
	Record    models.TrackingRecord `json:"record"`
	Completed bool                  `json:"completed"`
}

type ReportRequest struct {
	Report string `json:"report" validate:"max=4000"`
	Submit bool   `json:"submit"`
}

type JustificationRequest struct {
	Reason   string `json:"reason" validate:"required,oneof=high_demand system_slowness external_factor break_adjustment other impossible_to_complete"`
	Report   string `json:"report" validate:"max=4000"`
	Escalate bool   `json:"escalate"`
}

type TaskRequest struct {
	ID    string `json:"id"`
	Label string `json:"label" validate:"max=200"`
}

type BlockRequest struct {
	ID       string        `json:"id"`
	Hour     int           `json:"time" validate:"min=0,max=23"`
	Label    string        `json:"label" validate:"max=100"`
	Priority string        `json:"priority" validate:"omitempty,oneof=high medium low"`
	Category string        `json:"category" validate:"max=50"`
	Tasks    []TaskRequest `json:"tasks" validate:"dive"`
}

type ScheduleRequest struct {
	Blocks       []BlockRequest `json:"blocks" validate:"dive"`
	PreserveDays *int           `json:"preserve_days" validate:"omitempty,min=0,max=90"`
}

type BoardResponse struct {
	Date      string              `json:"date"`
	Hour      int                 `json:"hour"`
	Operators []board.OperatorDay `json:"operators"`
}

type WeeklyResponse struct {
	Username string              `json:"username"`
	Average  int                 `json:"average"`
	Series   []aggregate.DayStat `json:"series"`
}

type PresenceResponse struct {
	Online []string `json:"online"`
}
