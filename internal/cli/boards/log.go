package boards

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/storage"
)

// LogCmd prints the activity log, newest first.
type LogCmd struct {
	Limit int    `short:"n" help:"Entries to show. Defaults to the activity_log_limit setting."`
	Actor string `help:"Only show entries by this actor."`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	limit := c.Limit
	if limit <= 0 {
		settings, err := ctx.Settings()
		if err != nil {
			return err
		}
		limit = settings.ActivityLogLimit
	}
	entries, err := ctx.Store.GetRecentActivity(storage.ClampActivityLimit(limit))
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}
	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}

	out := ctx.Stdout()
	shown := 0
	for _, e := range entries {
		if c.Actor != "" && e.Actor != c.Actor {
			continue
		}
		fmt.Fprintf(out, "%s  %-12s %-18s %s\n", e.Timestamp.In(cal.Loc).Format("2006-01-02 15:04:05"), e.Actor, e.Action, e.Detail)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, "No activity recorded")
	}
	return nil
}
