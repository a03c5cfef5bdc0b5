package schedules

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/models"
)

type ScheduleDraftCmd struct {
	Show    ScheduleDraftShowCmd    `cmd:"" default:"withargs" help:"Show the pending draft."`
	Apply   ScheduleDraftApplyCmd   `cmd:"" help:"Save the draft as the schedule."`
	Discard ScheduleDraftDiscardCmd `cmd:"" help:"Drop the draft."`
}

type ScheduleDraftShowCmd struct {
	Username string `arg:"" help:"Operator username."`
}

func (c *ScheduleDraftShowCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.ScheduleService()
	if err != nil {
		return err
	}
	out := ctx.Stdout()
	blocks, ok := svc.LoadDraft(c.Username)
	if !ok {
		fmt.Fprintf(out, "No draft for %s\n", c.Username)
		return nil
	}
	fmt.Fprintf(out, "Draft for %s (%d block(s), %d task(s)):\n", c.Username, len(blocks), models.TotalTasks(blocks))
	printBlocks(out, blocks, nil, "", -1, false)
	return nil
}

type ScheduleDraftApplyCmd struct {
	Username      string `arg:"" help:"Operator username."`
	PreserveDays  int    `help:"Prior days to freeze as snapshots before replacing; -1 uses the setting." default:"-1"`
	SupervisorPIN string `name:"supervisor-pin" help:"Supervisor PIN." env:"OPSBOARD_SUPERVISOR_PIN"`
}

func (c *ScheduleDraftApplyCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireSupervisor(c.SupervisorPIN); err != nil {
		return err
	}
	svc, err := ctx.ScheduleService()
	if err != nil {
		return err
	}
	blocks, ok := svc.LoadDraft(c.Username)
	if !ok {
		return fmt.Errorf("no draft for %s", c.Username)
	}
	set := ScheduleSetCmd{PreserveDays: c.PreserveDays}
	preserve, err := set.preserveDays(ctx)
	if err != nil {
		return err
	}
	saved, err := svc.Save(ctx.Context(), cli.SupervisorActor, c.Username, blocks, preserve)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Applied draft: %d block(s) for %s\n", len(saved), c.Username)
	return nil
}

type ScheduleDraftDiscardCmd struct {
	Username string `arg:"" help:"Operator username."`
}

func (c *ScheduleDraftDiscardCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.ScheduleService()
	if err != nil {
		return err
	}
	if err := svc.DiscardDraft(c.Username); err != nil {
		return fmt.Errorf("failed to discard draft: %w", err)
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Discarded draft for %s\n", c.Username)
	return nil
}
