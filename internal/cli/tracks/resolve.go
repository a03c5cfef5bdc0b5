package tracks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/tracking"
	"github.com/julianstephens/opsboard/internal/utils"
)

// target is a block resolved from the command line plus the acting identity.
type target struct {
	actor string
	block models.ScheduleBlock
	key   string
}

// resolve authorizes the actor and finds the block by id or start hour.
// date selects the day the key refers to; empty means today.
func resolve(ctx *cli.Context, username, pin, blockRef, date string) (target, error) {
	actor, err := ctx.AuthorizeOperator(username, pin)
	if err != nil {
		return target{}, err
	}
	cal, err := ctx.Calendar()
	if err != nil {
		return target{}, err
	}
	if date == "" {
		date = cal.Today()
	} else if _, err := utils.ParseDay(date, cal.Loc); err != nil {
		return target{}, err
	}

	blocks, err := ctx.Store.GetSchedule(username)
	if err != nil {
		return target{}, fmt.Errorf("failed to get schedule: %w", err)
	}
	b, err := findBlock(blocks, blockRef)
	if err != nil {
		return target{}, err
	}
	return target{actor: actor, block: b, key: aggregate.TrackingKey(date, b.ID)}, nil
}

func findBlock(blocks []models.ScheduleBlock, ref string) (models.ScheduleBlock, error) {
	for _, b := range blocks {
		if b.ID == ref {
			return b, nil
		}
	}
	if hour, err := utils.ParseHour(ref); err == nil {
		for _, b := range blocks {
			if b.Hour == hour {
				return b, nil
			}
		}
	}
	return models.ScheduleBlock{}, fmt.Errorf("%w: %s", tracking.ErrUnknownBlock, ref)
}

// findTask accepts a task id or its 1-based position in the block.
func findTask(b models.ScheduleBlock, ref string) (models.Task, error) {
	for _, t := range b.Tasks {
		if t.ID == ref {
			return t, nil
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil && n >= 1 && n <= len(b.Tasks) {
		return b.Tasks[n-1], nil
	}
	return models.Task{}, fmt.Errorf("%w: %s", tracking.ErrUnknownTask, ref)
}
