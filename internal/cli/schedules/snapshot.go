package schedules

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/models"
)

// ScheduleSnapshotCmd freezes today's schedule. Without a username every
// operator is snapshotted; days that already have one are left alone.
type ScheduleSnapshotCmd struct {
	Username string `arg:"" optional:"" help:"Operator username."`
}

func (c *ScheduleSnapshotCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.ScheduleService()
	if err != nil {
		return err
	}
	out := ctx.Stdout()

	if c.Username == "" {
		n, err := svc.EnsureAllDailySnapshots(ctx.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %d snapshot(s)\n", n)
		return nil
	}

	wrote, err := svc.EnsureDailySnapshot(ctx.Context(), c.Username)
	if err != nil {
		return err
	}
	if wrote {
		fmt.Fprintf(out, "✓ Snapshot written for %s\n", c.Username)
	} else {
		fmt.Fprintf(out, "Snapshot for %s already exists or schedule is empty\n", c.Username)
	}
	return nil
}

type ScheduleSnapshotsCmd struct {
	Username string `arg:"" help:"Operator username."`
}

func (c *ScheduleSnapshotsCmd) Run(ctx *cli.Context) error {
	snaps, err := ctx.Store.GetSnapshots(c.Username)
	if err != nil {
		return fmt.Errorf("failed to get snapshots: %w", err)
	}
	out := ctx.Stdout()
	if len(snaps) == 0 {
		fmt.Fprintf(out, "No snapshots for %s\n", c.Username)
		return nil
	}
	fmt.Fprintf(out, "Snapshots for %s:\n", c.Username)
	for _, s := range snaps {
		fmt.Fprintf(out, "  %s  %d block(s), %d task(s)\n", s.Date, len(s.Blocks), models.TotalTasks(s.Blocks))
	}
	return nil
}
