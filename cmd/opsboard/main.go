package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/cli/backups"
	"github.com/julianstephens/opsboard/internal/cli/boards"
	"github.com/julianstephens/opsboard/internal/cli/presences"
	"github.com/julianstephens/opsboard/internal/cli/profiles"
	"github.com/julianstephens/opsboard/internal/cli/schedules"
	"github.com/julianstephens/opsboard/internal/cli/settings"
	"github.com/julianstephens/opsboard/internal/cli/system"
	"github.com/julianstephens/opsboard/internal/cli/tracks"
	"github.com/julianstephens/opsboard/internal/constants"
	apperrors "github.com/julianstephens/opsboard/internal/errors"
	"github.com/julianstephens/opsboard/internal/keyring"
	"github.com/julianstephens/opsboard/internal/localstate"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/redisconn"
	"github.com/julianstephens/opsboard/internal/storage"
	"github.com/julianstephens/opsboard/internal/storage/postgres"
	"github.com/julianstephens/opsboard/internal/storage/sqlite"
)

// keyringConfig selects the connection string stored with 'opsboard keyring set database'.
const keyringConfig = "keyring"

var CLI struct {
	Version       kong.VersionFlag
	Config        string `help:"SQLite path, PostgreSQL connection string, or 'keyring' to use the stored connection string. Credentials must NOT be embedded in the connection string." type:"string" default:"~/.config/opsboard/opsboard.db" env:"OPSBOARD_CONFIG"`
	Redis         string `help:"Redis address for shared presence, notification dedup and the change feed." env:"OPSBOARD_REDIS_ADDR"`
	RedisPassword string `help:"Redis password. Falls back to the OS keyring." env:"OPSBOARD_REDIS_PASSWORD"`
	RedisDB       int    `name:"redis-db" help:"Redis database number." default:"0"`
	Debug         bool   `help:"Log debug output to stderr." env:"OPSBOARD_DEBUG"`

	Init    system.InitCmd    `cmd:"" help:"Initialize opsboard storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the dashboard." default:"1"`
	Serve   system.ServeCmd   `cmd:"" help:"Serve the board over HTTP."`
	Notify  system.NotifyCmd  `cmd:"" help:"Run one late-block and justification notification pass."`

	Profile struct {
		Add    profiles.ProfileAddCmd    `cmd:"" help:"Add or update an operator."`
		List   profiles.ProfileListCmd   `cmd:"" help:"List operators."`
		Delete profiles.ProfileDeleteCmd `cmd:"" help:"Delete an operator and their data."`
		Pin    profiles.ProfilePinCmd    `cmd:"" help:"Set or clear an operator PIN."`
	} `cmd:"" help:"Manage operators."`
	Schedule struct {
		Show      schedules.ScheduleShowCmd      `cmd:"" help:"Show an operator's blocks for a day."`
		Set       schedules.ScheduleSetCmd       `cmd:"" help:"Replace an operator's schedule from JSON."`
		Snapshot  schedules.ScheduleSnapshotCmd  `cmd:"" help:"Freeze today's schedule."`
		Snapshots schedules.ScheduleSnapshotsCmd `cmd:"" help:"List frozen days."`
		Draft     schedules.ScheduleDraftCmd     `cmd:"" help:"Manage unsaved schedule drafts."`
	} `cmd:"" help:"Manage schedules."`
	Track struct {
		Toggle  tracks.TrackToggleCmd  `cmd:"" help:"Toggle a task."`
		Report  tracks.TrackReportCmd  `cmd:"" help:"Save a block report."`
		Submit  tracks.TrackSubmitCmd  `cmd:"" help:"Submit a block report to the supervisor."`
		Justify tracks.TrackJustifyCmd `cmd:"" help:"Justify a late block."`
		Attach  tracks.TrackAttachCmd  `cmd:"" help:"Attach a file to a block."`
	} `cmd:"" help:"Track block progress."`
	Import tracks.ImportCmd `cmd:"" help:"Import tracking rows from a legacy export."`
	Export tracks.ExportCmd `cmd:"" help:"Export tracking rows in the legacy format."`

	Status   boards.StatusCmd `cmd:"" help:"Show today's board."`
	Stats    boards.StatsCmd  `cmd:"" help:"Show completion series."`
	Review   boards.ReviewCmd `cmd:"" help:"List or mark reports and justifications awaiting review."`
	Log      boards.LogCmd    `cmd:"" help:"Show recent activity."`
	Presence struct {
		Beat  presences.PresenceBeatCmd  `cmd:"" help:"Mark an operator online."`
		Leave presences.PresenceLeaveCmd `cmd:"" help:"Mark an operator offline."`
		List  presences.PresenceListCmd  `cmd:"" help:"List online operators."`
		Watch presences.PresenceWatchCmd `cmd:"" help:"Print presence changes as they happen."`
	} `cmd:"" help:"Track operator presence."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a credential in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a stored credential, masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete a stored credential."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
	Supervisor struct {
		Pin system.SupervisorPinCmd `cmd:"" help:"Set or rotate the supervisor PIN."`
	} `cmd:"" help:"Supervisor administration."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Operator schedule-block tracking board"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
	command := ctx.Command()

	store, configDir, err := openStore(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir,
		Stderr:    strings.HasPrefix(command, "serve"),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{
		Store: store,
		State: localstate.New(filepath.Join(configDir, "state.json")),
		Ctx:   runCtx,
	}

	redisCfg := redisconn.Config{
		Addr:     CLI.Redis,
		Password: CLI.RedisPassword,
		DB:       CLI.RedisDB,
	}
	if redisCfg.Enabled() && !strings.HasPrefix(command, "keyring") {
		redisCfg.Password = keyring.Lookup(redisCfg.Password, keyring.EntryRedis)
		client := redisconn.New(redisCfg)
		if err := redisconn.Ping(runCtx, client); err != nil {
			_ = client.Close()
			apperrors.Fatal(err)
		}
		appCtx.Redis = client
	}

	// init and keyring manage storage themselves
	if !strings.HasPrefix(command, "init") && !strings.HasPrefix(command, "keyring") {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	appCtx.Close()
	if closeErr := store.Close(); closeErr != nil {
		logger.Warn("Failed to close storage", "error", closeErr)
	}
	if err != nil {
		apperrors.Fatal(err)
	}
}

// openStore picks the backend from the config value and returns the
// directory holding logs and local state.
func openStore(config string) (storage.Provider, string, error) {
	defaultDir := filepath.Dir(expandHome(constants.DefaultConfigPath))

	if config == keyringConfig {
		connStr, err := keyring.Get(keyring.EntryDatabase)
		if err != nil {
			return nil, "", fmt.Errorf("no database connection string in keyring: %w", err)
		}
		// Embedded credentials are accepted from the keyring.
		return postgres.New(connStr), defaultDir, nil
	}

	if postgres.IsConnString(config) {
		if _, err := postgres.ValidateConnString(config); err != nil {
			return nil, "", fmt.Errorf("%w\n       Store the full connection string with 'opsboard keyring set database <conn>' and pass --config keyring,\n       or keep the password in ~/.pgpass or PGPASSWORD", err)
		}
		return postgres.New(config), defaultDir, nil
	}

	path := expandHome(config)
	return sqlite.NewStore(path), filepath.Dir(path), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
