package tracks

import (
	"fmt"
	"strings"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/tracking"
)

// TrackReportCmd saves the block's report text without sending it.
type TrackReportCmd struct {
	Username string `arg:"" help:"Operator username."`
	Block    string `arg:"" help:"Block id or start hour."`
	Text     string `arg:"" help:"Report text; empty clears a plain report."`
	Date     string `short:"d" help:"Day the report is for (YYYY-MM-DD). Defaults to today."`
	PIN      string `help:"Operator PIN, or the supervisor PIN." env:"OPSBOARD_PIN"`
}

func (c *TrackReportCmd) Run(ctx *cli.Context) error {
	tgt, err := resolve(ctx, c.Username, c.PIN, c.Block, c.Date)
	if err != nil {
		return err
	}
	svc, err := ctx.TrackingService()
	if err != nil {
		return err
	}
	if _, err := svc.SetReport(ctx.Context(), tgt.actor, c.Username, tgt.key, c.Text); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Report saved for %s\n", tgt.block.Label)
	return nil
}

// TrackSubmitCmd saves the report and marks it sent for supervisor review.
type TrackSubmitCmd struct {
	Username string `arg:"" help:"Operator username."`
	Block    string `arg:"" help:"Block id or start hour."`
	Text     string `arg:"" optional:"" help:"Report text. Omit to submit the saved report."`
	Date     string `short:"d" help:"Day the report is for (YYYY-MM-DD). Defaults to today."`
	PIN      string `help:"Operator PIN, or the supervisor PIN." env:"OPSBOARD_PIN"`
}

func (c *TrackSubmitCmd) Run(ctx *cli.Context) error {
	tgt, err := resolve(ctx, c.Username, c.PIN, c.Block, c.Date)
	if err != nil {
		return err
	}
	svc, err := ctx.TrackingService()
	if err != nil {
		return err
	}
	text := c.Text
	if strings.TrimSpace(text) == "" {
		rec, err := svc.Record(c.Username, tgt.key)
		if err != nil {
			return err
		}
		text = rec.Note.Report
	}
	if _, err := svc.SubmitReport(ctx.Context(), tgt.actor, c.Username, tgt.key, text); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Report submitted for %s\n", tgt.block.Label)
	return nil
}

// TrackJustifyCmd files a delay justification for a block.
type TrackJustifyCmd struct {
	Username string `arg:"" help:"Operator username."`
	Block    string `arg:"" help:"Block id or start hour."`
	Reason   string `arg:"" enum:"high_demand,system_slowness,external_factor,break_adjustment,other,impossible_to_complete" help:"Delay reason (high_demand, system_slowness, external_factor, break_adjustment, other, impossible_to_complete)."`
	Text     string `short:"m" help:"Explanation; required for 'other'."`
	Escalate bool   `help:"Flag the delay for supervisor attention."`
	Date     string `short:"d" help:"Day the delay happened (YYYY-MM-DD). Defaults to today."`
	PIN      string `help:"Operator PIN, or the supervisor PIN." env:"OPSBOARD_PIN"`
}

func (c *TrackJustifyCmd) Run(ctx *cli.Context) error {
	tgt, err := resolve(ctx, c.Username, c.PIN, c.Block, c.Date)
	if err != nil {
		return err
	}
	svc, err := ctx.TrackingService()
	if err != nil {
		return err
	}
	j := tracking.Justification{
		Reason:   constants.DelayReason(c.Reason),
		Report:   c.Text,
		Escalate: c.Escalate,
	}
	if _, err := svc.Justify(ctx.Context(), tgt.actor, c.Username, tgt.key, j); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Justification filed for %s (%s)\n", tgt.block.Label, c.Reason)
	return nil
}
