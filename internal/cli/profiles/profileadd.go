package profiles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
)

type ProfileAddCmd struct {
	Username      string `arg:"" help:"Login name (lowercase letters, digits, '_' or '.')."`
	Name          string `short:"n" help:"Display name." required:""`
	Role          string `short:"r" help:"Role shown on the board." default:"operator"`
	Avatar        string `short:"a" help:"Single glyph shown next to the name."`
	Color         string `short:"c" help:"Lipgloss color, e.g. 205 or #ff5f87."`
	Update        bool   `help:"Update an existing profile instead of failing."`
	SupervisorPIN string `name:"supervisor-pin" help:"Supervisor PIN." env:"OPSBOARD_SUPERVISOR_PIN"`
}

func (c *ProfileAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireSupervisor(c.SupervisorPIN); err != nil {
		return err
	}

	p := models.Profile{
		Username:  strings.TrimSpace(c.Username),
		Name:      strings.TrimSpace(c.Name),
		Role:      c.Role,
		Avatar:    c.Avatar,
		Color:     c.Color,
		CreatedAt: ctx.Instant(),
	}
	existing, err := ctx.Store.GetProfile(p.Username)
	switch {
	case err == nil:
		if !c.Update {
			return fmt.Errorf("profile %s already exists; use --update to change it", p.Username)
		}
		p.PINHash = existing.PINHash
		p.CreatedAt = existing.CreatedAt
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to get profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if err := ctx.Store.SaveProfile(p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	rec := ctx.Recorder()
	rec.Changed(ctx.Context(), constants.TopicProfiles, p.Username)
	rec.Record(ctx.Context(), cli.SupervisorActor, constants.ActionProfileSaved, p.Username)

	fmt.Fprintf(ctx.Stdout(), "✓ Saved profile %s (%s)\n", p.Username, p.DisplayName())
	return nil
}

type ProfilePinCmd struct {
	Username      string `arg:"" help:"Operator username."`
	PIN           string `arg:"" optional:"" help:"New PIN (digits only). Omit with --clear."`
	Confirm       string `arg:"" optional:"" help:"New PIN again."`
	Clear         bool   `help:"Remove the operator's PIN."`
	Current       string `help:"Operator's current PIN."`
	SupervisorPIN string `name:"supervisor-pin" help:"Supervisor PIN, instead of the current PIN." env:"OPSBOARD_SUPERVISOR_PIN"`
}

func (c *ProfilePinCmd) Run(ctx *cli.Context) error {
	p, err := ctx.Store.GetProfile(c.Username)
	if err != nil {
		return fmt.Errorf("failed to get profile %s: %w", c.Username, err)
	}
	if p.HasPIN() && auth.VerifyOperator(p, c.Current) != nil {
		if err := ctx.RequireSupervisor(c.SupervisorPIN); err != nil {
			return auth.ErrInvalidPIN
		}
	}

	if c.Clear {
		p.PINHash = ""
	} else {
		hash, err := auth.HashPIN(c.PIN, c.Confirm)
		if err != nil {
			return err
		}
		p.PINHash = hash
	}
	if err := ctx.Store.SaveProfile(p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	ctx.Recorder().Record(ctx.Context(), p.Username, constants.ActionProfileSaved, "PIN updated")

	if c.Clear {
		fmt.Fprintf(ctx.Stdout(), "✓ Cleared PIN for %s\n", p.Username)
	} else {
		fmt.Fprintf(ctx.Stdout(), "✓ Updated PIN for %s\n", p.Username)
	}
	return nil
}
