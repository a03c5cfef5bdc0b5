package system

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/cli"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	store, ok := ctx.Store.(cli.SQLStore)
	if !ok {
		return fmt.Errorf("storage backend does not support migrations")
	}
	if store.GetDB() == nil {
		return fmt.Errorf("database connection is nil")
	}

	out := ctx.Stdout()
	count := 0
	err := store.Migrate(func(msg string) {
		count++
		fmt.Fprintln(out, msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if count == 0 {
		fmt.Fprintln(out, "No migrations to apply. Database is up to date.")
	}
	return nil
}
