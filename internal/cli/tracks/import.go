package tracks

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/legacy"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
)

// ImportCmd loads tracking rows exported by the browser dashboard. Rows are
// matched to blocks in the operators' current schedules; rows that already
// exist are skipped unless --overwrite is given.
type ImportCmd struct {
	File          string `arg:"" help:"JSON export file, or - for stdin."`
	DryRun        bool   `help:"Report what would be imported without writing."`
	Overwrite     bool   `help:"Replace records that already exist."`
	SupervisorPIN string `name:"supervisor-pin" help:"Supervisor PIN." env:"OPSBOARD_SUPERVISOR_PIN"`

	stdin io.Reader
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	if !c.DryRun {
		if err := ctx.RequireSupervisor(c.SupervisorPIN); err != nil {
			return err
		}
	}
	rows, err := c.read()
	if err != nil {
		return err
	}
	schedules, err := ctx.Store.GetAllSchedules()
	if err != nil {
		return fmt.Errorf("failed to get schedules: %w", err)
	}
	byID := make(map[string]map[string]models.ScheduleBlock, len(schedules))
	for username, blocks := range schedules {
		m := make(map[string]models.ScheduleBlock, len(blocks))
		for _, b := range blocks {
			m[b.ID] = b
		}
		byID[username] = m
	}

	out := ctx.Stdout()
	var imported, skipped, rejected, dropped int
	for _, row := range rows {
		conv, err := legacy.Convert(row, byID[row.Username])
		if err != nil {
			fmt.Fprintf(out, "  ✗ %v\n", err)
			rejected++
			continue
		}
		if len(conv.Dropped) > 0 {
			fmt.Fprintf(out, "  ⚠ %s/%s: dropped unknown task tokens %v\n", row.Username, row.TrackingKey, conv.Dropped)
			dropped += len(conv.Dropped)
		}
		if !c.Overwrite {
			_, err := ctx.Store.GetTrackingRecord(row.Username, row.TrackingKey)
			if err == nil {
				skipped++
				continue
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("failed to check existing record: %w", err)
			}
		}
		if c.DryRun {
			imported++
			continue
		}
		if err := ctx.Store.UpsertTrackingRecord(conv.Record); err != nil {
			return fmt.Errorf("failed to write %s/%s: %w", row.Username, row.TrackingKey, err)
		}
		imported++
	}

	verb := "Imported"
	if c.DryRun {
		verb = "Would import"
	} else if imported > 0 {
		rec := ctx.Recorder()
		rec.Changed(ctx.Context(), constants.TopicTracking, "import")
		rec.Record(ctx.Context(), cli.SupervisorActor, constants.ActionReportSaved,
			fmt.Sprintf("imported %d legacy record(s)", imported))
	}
	fmt.Fprintf(out, "%s %d record(s); %d skipped, %d rejected, %d task token(s) dropped\n",
		verb, imported, skipped, rejected, dropped)
	if rejected > 0 && imported == 0 && !c.DryRun {
		return fmt.Errorf("no rows could be imported")
	}
	return nil
}

func (c *ImportCmd) read() ([]legacy.Row, error) {
	if c.File == "-" {
		r := c.stdin
		if r == nil {
			r = os.Stdin
		}
		return legacy.ReadRows(r)
	}
	f, err := os.Open(c.File)
	if err != nil {
		return nil, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()
	return legacy.ReadRows(f)
}

// ExportCmd writes tracking records in the browser dashboard's format.
type ExportCmd struct {
	Username string `short:"u" help:"Only export this operator."`
	Output   string `short:"o" help:"Output file. Defaults to stdout."`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	records, err := ctx.Store.GetAllTrackingRecords()
	if err != nil {
		return fmt.Errorf("failed to get tracking records: %w", err)
	}
	schedules, err := ctx.Store.GetAllSchedules()
	if err != nil {
		return fmt.Errorf("failed to get schedules: %w", err)
	}

	var rows []legacy.Row
	for _, rec := range records {
		if c.Username != "" && rec.Username != c.Username {
			continue
		}
		var block models.ScheduleBlock
		if _, blockID, ok := aggregate.SplitKey(rec.Key); ok {
			for _, b := range schedules[rec.Username] {
				if b.ID == blockID {
					block = b
					break
				}
			}
		}
		row, err := legacy.ToRow(rec, block)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Username != rows[j].Username {
			return rows[i].Username < rows[j].Username
		}
		return rows[i].TrackingKey < rows[j].TrackingKey
	})

	w := ctx.Stdout()
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return legacy.WriteRows(w, rows)
}
