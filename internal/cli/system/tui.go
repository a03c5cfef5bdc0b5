package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/tui"
)

// TuiCmd opens the terminal dashboard. With --as the dashboard also beats
// presence for that operator.
type TuiCmd struct {
	As  string `help:"Operator username to keep online while the dashboard is open."`
	PIN string `help:"PIN for --as, or the supervisor PIN." env:"OPSBOARD_PIN"`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	ctx.PerformAutomaticBackup()

	if c.As != "" {
		if _, err := ctx.AuthorizeOperator(c.As, c.PIN); err != nil {
			return err
		}
	}
	deps, err := tui.DepsFrom(ctx, c.As)
	if err != nil {
		return err
	}
	defer deps.Close()

	p := tea.NewProgram(tui.NewModel(deps), tea.WithAltScreen(), tea.WithContext(ctx.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard exited: %w", err)
	}
	return nil
}
