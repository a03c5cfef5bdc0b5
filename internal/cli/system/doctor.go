package system

import (
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/backup"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/migration"
	"github.com/julianstephens/opsboard/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name    string
	needsDB bool
	warn    bool
	run     func(*cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warn: true, run: checkBackupsPresent},
	{name: "Settings", needsDB: true, run: checkSettings},
	{name: "Supervisor PIN", needsDB: true, warn: true, run: checkSupervisorPIN},
	{name: "Schedule integrity", needsDB: true, run: checkSchedules},
	{name: "Tracking keys", needsDB: true, run: checkTrackingKeys},
	{name: "Clock/timezone", run: func(*cli.Context) error { return checkClockTimezone() }},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	fmt.Fprintln(out, "Running diagnostics...")
	fmt.Fprintln(out)

	hasError := false
	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		report(out, "Database reachable", err, false)
		hasError = true
		dbReachable = false
	} else {
		report(out, "Database reachable", nil, false)
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Fprintf(out, "⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		report(out, c.name, err, c.warn)
		if err != nil && !c.warn {
			hasError = true
		}
	}

	fmt.Fprintln(out)
	if hasError {
		fmt.Fprintln(out, "Some checks failed. Please review the errors above.")
		return fmt.Errorf("diagnostics failed")
	}
	fmt.Fprintln(out, "All checks passed!")
	return nil
}

func report(out io.Writer, name string, err error, warn bool) {
	switch {
	case err == nil:
		fmt.Fprintf(out, "✓ %s: OK\n", name)
	case warn:
		fmt.Fprintf(out, "⚠ %s: WARNING\n", name)
		fmt.Fprintf(out, "   %v\n", err)
	default:
		fmt.Fprintf(out, "❌ %s: FAIL\n", name)
		fmt.Fprintf(out, "   Error: %v\n", err)
	}
}

func runner(ctx *cli.Context) (*migration.Runner, error) {
	store, ok := ctx.Store.(cli.SQLStore)
	if !ok || store.GetDB() == nil {
		return nil, fmt.Errorf("database connection is not available")
	}
	return migration.ForDialect(store.GetDB(), ctx.Dialect())
}

func checkDBReachable(ctx *cli.Context) error {
	store, ok := ctx.Store.(cli.SQLStore)
	if !ok || store.GetDB() == nil {
		return fmt.Errorf("database connection is not available")
	}
	if err := store.GetDB().Ping(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	r, err := runner(ctx)
	if err != nil {
		return err
	}
	return r.ValidateVersion()
}

func checkMigrationsComplete(ctx *cli.Context) error {
	r, err := runner(ctx)
	if err != nil {
		return err
	}
	current, err := r.GetCurrentVersion()
	if err != nil {
		return err
	}
	latest, err := r.GetLatestVersion()
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("schema at version %d, latest is %d; run 'opsboard migrate'", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if !ctx.IsSQLite() {
		return nil
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found; run 'opsboard backup create'")
	}
	if age := time.Since(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("unknown timezone %q", settings.Timezone)
	}
	if settings.PresenceTTL() < settings.HeartbeatInterval() {
		return fmt.Errorf("presence TTL (%s) is shorter than the heartbeat interval (%s)",
			settings.PresenceTTL(), settings.HeartbeatInterval())
	}
	return nil
}

func checkSupervisorPIN(ctx *cli.Context) error {
	settings, err := ctx.Settings()
	if err != nil {
		return err
	}
	if settings.SupervisorPINHash == "" {
		return fmt.Errorf("supervisor PIN is not set; run 'opsboard supervisor pin'")
	}
	return nil
}

func checkSchedules(ctx *cli.Context) error {
	schedules, err := ctx.Store.GetAllSchedules()
	if err != nil {
		return err
	}
	for username, blocks := range schedules {
		seen := make(map[string]bool, len(blocks))
		for _, b := range blocks {
			if err := b.Validate(); err != nil {
				return fmt.Errorf("%s: %w", username, err)
			}
			if seen[b.ID] {
				return fmt.Errorf("%s: duplicate block id %s", username, b.ID)
			}
			seen[b.ID] = true
		}
	}
	return nil
}

func checkTrackingKeys(ctx *cli.Context) error {
	records, err := ctx.Store.GetAllTrackingRecords()
	if err != nil {
		return err
	}
	bad := 0
	for _, r := range records {
		if _, _, ok := aggregate.SplitKey(r.Key); !ok {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d tracking record(s) have malformed keys", bad)
	}
	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock reads %s", now.Format(time.RFC3339))
	}
	if _, err := utils.LoadLocation("Local"); err != nil {
		return fmt.Errorf("local timezone unavailable: %w", err)
	}
	return nil
}
