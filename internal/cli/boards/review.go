package boards

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/julianstephens/opsboard/internal/board"
	"github.com/julianstephens/opsboard/internal/cli"
)

// ReviewCmd lists submitted reports and justifications awaiting review and
// marks them reviewed. Marks are local to this machine.
type ReviewCmd struct {
	Mark          []string `help:"Review ids (user/key) to mark reviewed." sep:","`
	All           bool     `help:"Mark everything pending as reviewed."`
	SupervisorPIN string   `name:"supervisor-pin" help:"Supervisor PIN, required to mark." env:"OPSBOARD_SUPERVISOR_PIN"`
}

func (c *ReviewCmd) Run(ctx *cli.Context) error {
	snap, err := ctx.Loader().Load()
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}
	reviews := ctx.Reviews()
	reports := board.PendingReports(snap, reviews.ReportReviewed)
	justifications := board.PendingJustifications(snap, reviews.JustificationReviewed)
	out := ctx.Stdout()

	if len(c.Mark) == 0 && !c.All {
		printPending(out, "Reports", reports, false)
		printPending(out, "Justifications", justifications, true)
		return nil
	}

	if err := ctx.RequireSupervisor(c.SupervisorPIN); err != nil {
		return err
	}
	want := make(map[string]bool, len(c.Mark))
	for _, id := range c.Mark {
		want[id] = true
	}
	var reportIDs, justIDs []string
	for _, p := range reports {
		if c.All || want[p.ReviewID()] {
			reportIDs = append(reportIDs, p.ReviewID())
			delete(want, p.ReviewID())
		}
	}
	for _, p := range justifications {
		if c.All || want[p.ReviewID()] {
			justIDs = append(justIDs, p.ReviewID())
			delete(want, p.ReviewID())
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for id := range want {
			missing = append(missing, id)
		}
		sort.Strings(missing)
		return fmt.Errorf("not pending review: %s", strings.Join(missing, ", "))
	}

	if err := reviews.MarkReport(reportIDs...); err != nil {
		return fmt.Errorf("failed to mark reports: %w", err)
	}
	if err := reviews.MarkJustification(justIDs...); err != nil {
		return fmt.Errorf("failed to mark justifications: %w", err)
	}
	fmt.Fprintf(out, "✓ Marked %d report(s) and %d justification(s) reviewed\n", len(reportIDs), len(justIDs))
	return nil
}

func printPending(out io.Writer, title string, pending []board.Pending, justification bool) {
	fmt.Fprintf(out, "%s awaiting review: %d\n", title, len(pending))
	for _, p := range pending {
		note := p.Record.Note
		head := ""
		if justification {
			head = string(note.Reason)
			if note.Escalated {
				head += " ⚑"
			}
			head += ": "
		}
		fmt.Fprintf(out, "  %s  %s, %s: %s%s\n", p.ReviewID(), p.Name, p.Label, head, note.Report)
	}
}
