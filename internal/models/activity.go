package models

import (
	"time"

	"github.com/julianstephens/opsboard/internal/constants"
)

// ActivityLogEntry is an append-only audit record.
type ActivityLogEntry struct {
	ID        string                   `json:"id"`
	Actor     string                   `json:"actor"`
	Action    constants.ActivityAction `json:"action"`
	Detail    string                   `json:"detail"`
	Timestamp time.Time                `json:"timestamp"`
}

// LatePair identifies a block that is late for an operator on a day.
type LatePair struct {
	Date     string `json:"date"`
	Username string `json:"username"`
	BlockID  string `json:"block_id"`
	Label    string `json:"label"`
	Name     string `json:"name"`
}
