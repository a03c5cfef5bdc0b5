package schedules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/models"
)

// ScheduleSetCmd replaces an operator's schedule from a JSON array of blocks:
//
//	[{"id": "...", "time": 9, "label": "Queues", "priority": "high",
//	  "tasks": [{"label": "Check inbox"}]}]
//
// Blocks and tasks without ids get new ones; existing ids are kept so
// tracking history stays attached.
type ScheduleSetCmd struct {
	Username      string `arg:"" help:"Operator username."`
	File          string `short:"f" help:"JSON file with the blocks, or - for stdin." default:"-"`
	PreserveDays  int    `help:"Prior days to freeze as snapshots before replacing; -1 uses the snapshot_preserve_days setting." default:"-1"`
	Draft         bool   `help:"Store as a draft instead of saving."`
	SupervisorPIN string `name:"supervisor-pin" help:"Supervisor PIN." env:"OPSBOARD_SUPERVISOR_PIN"`

	stdin io.Reader
}

func (c *ScheduleSetCmd) Run(ctx *cli.Context) error {
	blocks, err := c.readBlocks()
	if err != nil {
		return err
	}
	svc, err := ctx.ScheduleService()
	if err != nil {
		return err
	}
	out := ctx.Stdout()

	if c.Draft {
		if err := svc.SaveDraft(c.Username, blocks); err != nil {
			return fmt.Errorf("failed to save draft: %w", err)
		}
		fmt.Fprintf(out, "✓ Saved draft with %d block(s) for %s. Apply it with 'opsboard schedule draft apply %s'.\n",
			len(blocks), c.Username, c.Username)
		return nil
	}

	if err := ctx.RequireSupervisor(c.SupervisorPIN); err != nil {
		return err
	}
	preserve, err := c.preserveDays(ctx)
	if err != nil {
		return err
	}
	saved, err := svc.Save(ctx.Context(), cli.SupervisorActor, c.Username, blocks, preserve)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Saved %d block(s), %d task(s) for %s\n", len(saved), models.TotalTasks(saved), c.Username)
	return nil
}

func (c *ScheduleSetCmd) preserveDays(ctx *cli.Context) (int, error) {
	if c.PreserveDays >= 0 {
		return c.PreserveDays, nil
	}
	settings, err := ctx.Settings()
	if err != nil {
		return 0, err
	}
	return settings.SnapshotPreserveDays, nil
}

func (c *ScheduleSetCmd) readBlocks() ([]models.ScheduleBlock, error) {
	var r io.Reader
	if c.File == "-" || c.File == "" {
		r = c.stdin
		if r == nil {
			r = os.Stdin
		}
	} else {
		f, err := os.Open(c.File)
		if err != nil {
			return nil, fmt.Errorf("failed to open schedule file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var blocks []models.ScheduleBlock
	if err := json.NewDecoder(r).Decode(&blocks); err != nil {
		return nil, fmt.Errorf("failed to parse schedule JSON: %w", err)
	}
	return blocks, nil
}
