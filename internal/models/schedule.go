package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/opsboard/internal/constants"
)

// Task is one sub-task of a block. IDs are stable across reorders.
type Task struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ScheduleBlock is one scheduled hour slot for one operator.
type ScheduleBlock struct {
	ID       string             `json:"id"`
	Username string             `json:"username"`
	Hour     int                `json:"time"`
	Label    string             `json:"label"`
	Priority constants.Priority `json:"priority"`
	Category string             `json:"category,omitempty"`
	Tasks    []Task             `json:"tasks"`
	Position int                `json:"position"`
}

// IsBreak reports whether the block is a placeholder with no tasks.
func (b ScheduleBlock) IsBreak() bool {
	return len(b.Tasks) == 0
}

// TaskIDs returns the block's task ids in order.
func (b ScheduleBlock) TaskIDs() []string {
	ids := make([]string, len(b.Tasks))
	for i, t := range b.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// HasTask reports whether id belongs to the block.
func (b ScheduleBlock) HasTask(id string) bool {
	for _, t := range b.Tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// CompletedCount counts how many of the block's tasks are in the record's completed set.
// Ids the block no longer carries are ignored.
func (b ScheduleBlock) CompletedCount(rec *TrackingRecord) int {
	if rec == nil {
		return 0
	}
	n := 0
	for _, t := range b.Tasks {
		if rec.IsCompleted(t.ID) {
			n++
		}
	}
	return n
}

// IsComplete reports whether every task of a non-empty block is completed in rec.
func (b ScheduleBlock) IsComplete(rec *TrackingRecord) bool {
	return len(b.Tasks) > 0 && b.CompletedCount(rec) == len(b.Tasks)
}

func (b *ScheduleBlock) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("block id cannot be empty")
	}
	if b.Hour < 0 || b.Hour > 23 {
		return fmt.Errorf("block %s: hour %d out of range 0-23", b.ID, b.Hour)
	}
	if !b.Priority.Valid() {
		return fmt.Errorf("block %s: invalid priority %q", b.ID, b.Priority)
	}
	seen := make(map[string]bool, len(b.Tasks))
	for _, t := range b.Tasks {
		if t.ID == "" {
			return fmt.Errorf("block %s: task %q has no id", b.ID, t.Label)
		}
		if seen[t.ID] {
			return fmt.Errorf("block %s: duplicate task id %s", b.ID, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// ScheduleSnapshot is a frozen copy of an operator's schedule for one date.
type ScheduleSnapshot struct {
	Username  string          `json:"username"`
	Date      string          `json:"snapshot_date"` // YYYY-MM-DD
	Blocks    []ScheduleBlock `json:"blocks"`
	CreatedAt time.Time       `json:"created_at"`
}

// TotalTasks sums the task counts of blocks.
func TotalTasks(blocks []ScheduleBlock) int {
	total := 0
	for _, b := range blocks {
		total += len(b.Tasks)
	}
	return total
}
