package schedules

import (
	"fmt"
	"io"
	"strings"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/status"
	"github.com/julianstephens/opsboard/internal/utils"
)

type ScheduleShowCmd struct {
	Username string `arg:"" help:"Operator username."`
	Date     string `short:"d" help:"Day to show (YYYY-MM-DD). Defaults to today."`
	ShowIDs  bool   `help:"Show block and task IDs." name:"show-ids"`
}

func (c *ScheduleShowCmd) Run(ctx *cli.Context) error {
	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	svc, err := ctx.ScheduleService()
	if err != nil {
		return err
	}
	if _, err := ctx.Store.GetProfile(c.Username); err != nil {
		return fmt.Errorf("failed to get profile %s: %w", c.Username, err)
	}

	today := cal.Today()
	date := today
	if c.Date != "" {
		if _, err := utils.ParseDay(c.Date, cal.Loc); err != nil {
			return err
		}
		date = c.Date
	}

	blocks, fromSnapshot, err := svc.ForDate(c.Username, date)
	if err != nil {
		return fmt.Errorf("failed to get schedule: %w", err)
	}
	records, err := ctx.Store.GetTrackingRecords(c.Username)
	if err != nil {
		return fmt.Errorf("failed to get tracking records: %w", err)
	}

	out := ctx.Stdout()
	source := "current schedule"
	if fromSnapshot {
		source = "snapshot"
	}
	fmt.Fprintf(out, "Schedule for %s on %s (%s):\n", c.Username, date, source)
	if len(blocks) == 0 {
		fmt.Fprintln(out, "  No blocks scheduled")
		return nil
	}
	printBlocks(out, blocks, aggregate.SliceByDate(records, date), date, hourFor(date, today, cal.Hour()), c.ShowIDs)
	return nil
}

// hourFor places past days after their last hour and future days before the first.
func hourFor(date, today string, nowHour int) int {
	switch {
	case date < today:
		return 24
	case date > today:
		return -1
	default:
		return nowHour
	}
}

var statusMarks = map[constants.BlockStatus]string{
	constants.StatusDone:    "✓",
	constants.StatusCurrent: "▶",
	constants.StatusLate:    "!",
	constants.StatusFuture:  " ",
}

func printBlocks(out io.Writer, blocks []models.ScheduleBlock, slice map[string]models.TrackingRecord, date string, nowHour int, showIDs bool) {
	for _, b := range blocks {
		var rec *models.TrackingRecord
		if r, ok := slice[aggregate.TrackingKey(date, b.ID)]; ok {
			rec = &r
		}
		st := status.Derive(b, rec, nowHour)

		id := ""
		if showIDs {
			id = fmt.Sprintf(" (ID: %s)", b.ID)
		}
		fmt.Fprintf(out, "  [%s] %s %s%s - %s priority, %d/%d tasks, %s\n",
			statusMarks[st], utils.HourLabel(b.Hour), b.Label, id, b.Priority,
			b.CompletedCount(rec), len(b.Tasks), st)
		for _, t := range b.Tasks {
			check := " "
			if rec.IsCompleted(t.ID) {
				check = "x"
			}
			tid := ""
			if showIDs {
				tid = fmt.Sprintf(" (ID: %s)", t.ID)
			}
			fmt.Fprintf(out, "      [%s] %s%s\n", check, t.Label, tid)
		}
		if rec != nil && strings.TrimSpace(rec.Note.Report) != "" {
			fmt.Fprintf(out, "      note: %s\n", rec.Note.Report)
		}
	}
}
