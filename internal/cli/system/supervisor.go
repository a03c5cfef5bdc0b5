package system

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
)

// SupervisorPinCmd sets or rotates the supervisor PIN. Rotating requires the
// current PIN.
type SupervisorPinCmd struct {
	Current string `help:"Current supervisor PIN, required once a PIN is set." env:"OPSBOARD_SUPERVISOR_PIN"`
	PIN     string `arg:"" help:"New PIN (digits only)."`
	Confirm string `arg:"" help:"New PIN again."`
}

func (c *SupervisorPinCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	if settings.SupervisorPINHash != "" {
		if err := auth.VerifySupervisor(settings, c.Current); err != nil {
			return err
		}
	}

	hash, err := auth.HashPIN(c.PIN, c.Confirm)
	if err != nil {
		return err
	}
	settings.SupervisorPINHash = hash
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Recorder().Record(ctx.Context(), cli.SupervisorActor, constants.ActionSettingsUpdated, "supervisor PIN updated")
	fmt.Fprintln(ctx.Stdout(), "✓ Supervisor PIN updated")
	return nil
}
