package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/opsboard/internal/cli"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing sqlite database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	if c.Force {
		if !ctx.IsSQLite() {
			return fmt.Errorf("--force only applies to sqlite storage")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Fprintf(out, "Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Initialized opsboard storage at: %s\n", ctx.Store.GetConfigPath())
	fmt.Fprintln(out, "Next: set a supervisor PIN with 'opsboard supervisor pin' and add operators with 'opsboard profile add'.")
	return nil
}
