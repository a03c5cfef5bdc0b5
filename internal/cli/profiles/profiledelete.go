package profiles

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
)

type ProfileDeleteCmd struct {
	Username      string `arg:"" help:"Operator username."`
	SupervisorPIN string `name:"supervisor-pin" help:"Supervisor PIN." env:"OPSBOARD_SUPERVISOR_PIN"`
}

func (c *ProfileDeleteCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireSupervisor(c.SupervisorPIN); err != nil {
		return err
	}
	if _, err := ctx.Store.GetProfile(c.Username); err != nil {
		return fmt.Errorf("failed to get profile %s: %w", c.Username, err)
	}
	if err := ctx.Store.DeleteProfile(c.Username); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	rec := ctx.Recorder()
	rec.Changed(ctx.Context(), constants.TopicProfiles, c.Username)
	rec.Record(ctx.Context(), cli.SupervisorActor, constants.ActionProfileDeleted, c.Username)

	fmt.Fprintf(ctx.Stdout(), "✓ Deleted profile %s. Tracking history is kept.\n", c.Username)
	return nil
}
