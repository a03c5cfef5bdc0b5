package schedule

import (
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/opsboard/internal/constants"
	apperrors "github.com/julianstephens/opsboard/internal/errors"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/utils"
)

// Normalize prepares an edited schedule for saving. It assigns missing block
// and task ids, derives labels from the hour, defaults the priority, drops
// blank tasks and rewrites positions from slice order. Existing ids are kept
// so completion records stay attached across edits.
func Normalize(username string, blocks []models.ScheduleBlock) ([]models.ScheduleBlock, error) {
	out := make([]models.ScheduleBlock, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))

	for i, b := range blocks {
		b.Username = username
		b.Position = i
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if seen[b.ID] {
			return nil, apperrors.Invalid("blocks", "duplicate block id %s", b.ID)
		}
		seen[b.ID] = true

		if b.Hour < 0 || b.Hour > 23 {
			return nil, apperrors.Invalid("time", "hour %d out of range 0-23", b.Hour)
		}
		b.Label = strings.TrimSpace(b.Label)
		if b.Label == "" {
			b.Label = utils.HourLabel(b.Hour)
		}
		if b.Priority == "" {
			b.Priority = constants.PriorityMedium
		}
		if !b.Priority.Valid() {
			return nil, apperrors.Invalid("priority", "%q is not one of high, medium, low", b.Priority)
		}
		b.Category = strings.TrimSpace(b.Category)

		tasks := make([]models.Task, 0, len(b.Tasks))
		for _, t := range b.Tasks {
			t.Label = strings.TrimSpace(t.Label)
			if t.Label == "" {
				continue
			}
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			tasks = append(tasks, t)
		}
		b.Tasks = tasks

		if err := b.Validate(); err != nil {
			return nil, apperrors.Invalid("blocks", "%v", err)
		}
		out = append(out, b)
	}
	return out, nil
}

// NewBlock builds an unsaved block from an hour and task labels.
func NewBlock(hour int, priority constants.Priority, category string, labels ...string) models.ScheduleBlock {
	b := models.ScheduleBlock{Hour: hour, Priority: priority, Category: category}
	for _, l := range labels {
		b.Tasks = append(b.Tasks, models.Task{Label: l})
	}
	return b
}
