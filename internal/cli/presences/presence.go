package presences

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/presence"
)

// PresenceBeatCmd marks an operator online. With --keep it keeps beating
// until interrupted and then leaves.
type PresenceBeatCmd struct {
	Username string `arg:"" help:"Operator username."`
	Keep     bool   `help:"Keep beating until interrupted."`
	PIN      string `help:"Operator PIN, or the supervisor PIN." env:"OPSBOARD_PIN"`
}

func (c *PresenceBeatCmd) Run(ctx *cli.Context) error {
	actor, err := ctx.AuthorizeOperator(c.Username, c.PIN)
	if err != nil {
		return err
	}
	tracker, err := ctx.PresenceTracker()
	if err != nil {
		return err
	}
	out := ctx.Stdout()

	if !c.Keep {
		if err := tracker.Heartbeat(ctx.Context(), c.Username); err != nil {
			return fmt.Errorf("heartbeat failed: %w", err)
		}
		fmt.Fprintf(out, "● %s is online for %s\n", c.Username, tracker.TTL())
		return nil
	}

	ctx.Recorder().Record(ctx.Context(), actor, constants.ActionLogin, c.Username)
	fmt.Fprintf(out, "● %s is online, beating every %s. Press Ctrl+C to leave.\n", c.Username, tracker.Interval())
	err = tracker.KeepAlive(ctx.Context(), c.Username)
	ctx.Recorder().Record(ctx.Context(), actor, constants.ActionLogout, c.Username)
	fmt.Fprintf(out, "○ %s left\n", c.Username)
	return err
}

type PresenceLeaveCmd struct {
	Username string `arg:"" help:"Operator username."`
	PIN      string `help:"Operator PIN, or the supervisor PIN." env:"OPSBOARD_PIN"`
}

func (c *PresenceLeaveCmd) Run(ctx *cli.Context) error {
	actor, err := ctx.AuthorizeOperator(c.Username, c.PIN)
	if err != nil {
		return err
	}
	tracker, err := ctx.PresenceTracker()
	if err != nil {
		return err
	}
	if err := tracker.Leave(ctx.Context(), c.Username); err != nil {
		return fmt.Errorf("leave failed: %w", err)
	}
	ctx.Recorder().Record(ctx.Context(), actor, constants.ActionLogout, c.Username)
	fmt.Fprintf(ctx.Stdout(), "○ %s is offline\n", c.Username)
	return nil
}

type PresenceListCmd struct{}

func (c *PresenceListCmd) Run(ctx *cli.Context) error {
	tracker, err := ctx.PresenceTracker()
	if err != nil {
		return err
	}
	ids, err := tracker.Recompute(ctx.Context())
	if err != nil {
		return fmt.Errorf("failed to read presence: %w", err)
	}
	profiles, err := ctx.Store.GetAllProfiles()
	if err != nil {
		return fmt.Errorf("failed to get profiles: %w", err)
	}

	out := ctx.Stdout()
	fmt.Fprintf(out, "Online: %d of %d\n", len(ids), len(profiles))
	for _, p := range profiles {
		dot := "○"
		if tracker.IsOnline(p.Username) {
			dot = "●"
		}
		fmt.Fprintf(out, "  %s %s (%s)\n", dot, p.DisplayName(), p.Username)
	}
	return nil
}

// PresenceWatchCmd prints the online set each time it changes.
type PresenceWatchCmd struct{}

func (c *PresenceWatchCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	tracker, err := ctx.PresenceTracker(presence.WithOnChange(func(active []string) {
		if len(active) == 0 {
			fmt.Fprintln(out, "online: (nobody)")
			return
		}
		fmt.Fprintf(out, "online: %s\n", strings.Join(active, ", "))
	}))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Watching presence every %s (TTL %s). Press Ctrl+C to stop.\n", tracker.Interval(), tracker.TTL())
	if err := tracker.Run(ctx.Context()); err != nil && !errors.Is(err, ctx.Context().Err()) {
		return err
	}
	return nil
}
