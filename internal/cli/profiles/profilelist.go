package profiles

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/cli"
)

type ProfileListCmd struct{}

func (c *ProfileListCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	profiles, err := ctx.Store.GetAllProfiles()
	if err != nil {
		return fmt.Errorf("failed to get profiles: %w", err)
	}
	if len(profiles) == 0 {
		fmt.Fprintln(out, "No operators found")
		return nil
	}

	blocks, err := ctx.Store.GetAllSchedules()
	if err != nil {
		return fmt.Errorf("failed to get schedules: %w", err)
	}

	fmt.Fprintln(out, "Operators:")
	for _, p := range profiles {
		lock := ""
		if p.HasPIN() {
			lock = " 🔒"
		}
		avatar := p.Avatar
		if avatar == "" {
			avatar = "·"
		}
		fmt.Fprintf(out, "  %s %s (%s) - %s, %d block(s)%s\n",
			avatar, p.DisplayName(), p.Username, p.Role, len(blocks[p.Username]), lock)
	}
	return nil
}
