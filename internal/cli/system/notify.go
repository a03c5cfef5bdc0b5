package system

import (
	"fmt"
	"strings"

	"github.com/julianstephens/opsboard/internal/board"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
)

// NotifyCmd runs one late-block and justification pass. Already notified
// keys are skipped, so it is safe to run from cron every minute.
type NotifyCmd struct {
	DryRun bool `help:"Print notifications to stdout instead of sending them."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	if !settings.NotificationsEnabled {
		if c.DryRun {
			fmt.Fprintln(out, "Notifications are disabled in settings.")
		}
		return nil
	}

	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	d, err := ctx.Dispatcher(c.DryRun)
	if err != nil {
		return err
	}
	snap, err := ctx.Loader().Load()
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}

	res, err := board.NotifyPass(ctx.Context(), snap, cal, d, ctx.Reviews().JustificationReviewed)
	if !c.DryRun && len(res.Late.Sent) > 0 {
		ctx.Recorder().Record(ctx.Context(), "system", constants.ActionLateNotified, strings.Join(res.Late.Sent, ", "))
	}
	if c.DryRun {
		fmt.Fprintf(out, "%d late, %d justification notice(s); %d already notified\n",
			len(res.Late.Sent), len(res.Justifications.Sent), res.Late.Skipped+res.Justifications.Skipped)
	}
	if err != nil {
		return err
	}
	if failed := len(res.Late.Failed) + len(res.Justifications.Failed); failed > 0 {
		return fmt.Errorf("%d notification(s) failed to send; they will be retried on the next run", failed)
	}
	return nil
}
