package tracks

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/cli"
)

type TrackToggleCmd struct {
	Username string `arg:"" help:"Operator username."`
	Block    string `arg:"" help:"Block id or start hour (e.g. 09:00)."`
	Task     string `arg:"" help:"Task id or 1-based position."`
	PIN      string `help:"Operator PIN, or the supervisor PIN." env:"OPSBOARD_PIN"`
}

func (c *TrackToggleCmd) Run(ctx *cli.Context) error {
	tgt, err := resolve(ctx, c.Username, c.PIN, c.Block, "")
	if err != nil {
		return err
	}
	task, err := findTask(tgt.block, c.Task)
	if err != nil {
		return err
	}
	svc, err := ctx.TrackingService()
	if err != nil {
		return err
	}
	rec, done, err := svc.ToggleTask(ctx.Context(), tgt.actor, c.Username, tgt.block.ID, task.ID)
	if err != nil {
		return err
	}

	mark := "○"
	if done {
		mark = "✓"
	}
	fmt.Fprintf(ctx.Stdout(), "%s %s (%s): %d/%d tasks done\n",
		mark, task.Label, tgt.block.Label, tgt.block.CompletedCount(&rec), len(tgt.block.Tasks))
	return nil
}
