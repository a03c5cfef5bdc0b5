package boards

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/julianstephens/opsboard/internal/board"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/utils"
)

// StatusCmd prints today's board: every operator's progress and late blocks.
type StatusCmd struct {
	Username string `arg:"" optional:"" help:"Show only this operator, with every block."`
	JSON     bool   `help:"Print the board as JSON."`
}

type statusOutput struct {
	Date      string              `json:"date"`
	Hour      int                 `json:"hour"`
	Operators []board.OperatorDay `json:"operators"`
}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	snap, err := ctx.Loader().Load()
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}
	online := onlineFunc(ctx)

	today, hour := cal.Today(), cal.Hour()
	var days []board.OperatorDay
	if c.Username != "" {
		day, ok := snap.Day(c.Username, today, hour, online)
		if !ok {
			return fmt.Errorf("unknown operator %q", c.Username)
		}
		days = []board.OperatorDay{day}
	} else {
		days = snap.Days(today, hour, online)
	}

	out := ctx.Stdout()
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statusOutput{Date: today, Hour: hour, Operators: days})
	}

	fmt.Fprintf(out, "Board for %s at %s\n", today, utils.HourLabel(hour))
	if len(days) == 0 {
		fmt.Fprintln(out, "No operators found")
		return nil
	}
	for _, d := range days {
		printDay(out, d, c.Username != "")
	}
	return nil
}

// onlineFunc recomputes presence once; failures leave everyone offline.
func onlineFunc(ctx *cli.Context) func(string) bool {
	tracker, err := ctx.PresenceTracker()
	if err != nil {
		logger.Warn("Presence unavailable", "error", err)
		return nil
	}
	if _, err := tracker.Recompute(ctx.Context()); err != nil {
		logger.Warn("Presence unavailable", "error", err)
	}
	return tracker.IsOnline
}

func printDay(out io.Writer, d board.OperatorDay, blocks bool) {
	dot := "○"
	if d.Online {
		dot = "●"
	}
	late := ""
	if d.Counts.Late > 0 {
		late = fmt.Sprintf(", %d late", d.Counts.Late)
	}
	fmt.Fprintf(out, "  %s %-20s %3d%% (%d/%d tasks%s)\n", dot, d.Profile.DisplayName(), d.Percent, d.Done, d.Total, late)

	for _, v := range d.Blocks {
		if !blocks && v.Status != constants.StatusLate {
			continue
		}
		fmt.Fprintf(out, "      %s %s %s (%d/%d)\n", utils.HourLabel(v.Block.Hour), v.Block.Label, v.Status, v.Completed, len(v.Block.Tasks))
	}
}
