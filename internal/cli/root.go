package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/julianstephens/opsboard/internal/activity"
	"github.com/julianstephens/opsboard/internal/auth"
	"github.com/julianstephens/opsboard/internal/backup"
	"github.com/julianstephens/opsboard/internal/board"
	"github.com/julianstephens/opsboard/internal/changes"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/keyring"
	"github.com/julianstephens/opsboard/internal/localstate"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/migration"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/notifier"
	"github.com/julianstephens/opsboard/internal/presence"
	"github.com/julianstephens/opsboard/internal/schedule"
	"github.com/julianstephens/opsboard/internal/storage"
	"github.com/julianstephens/opsboard/internal/storage/postgres"
	"github.com/julianstephens/opsboard/internal/tracking"
	"github.com/julianstephens/opsboard/internal/utils"
)

// SupervisorActor is the actor name recorded for supervisor actions.
const SupervisorActor = "supervisor"

// autoBackupMinAge spaces automatic backups taken before schedule saves.
const autoBackupMinAge = time.Hour

type Context struct {
	Store storage.Provider
	State *localstate.Store
	// Redis is nil unless --redis was given.
	Redis *redis.Client
	// Now overrides the system clock in tests.
	Now utils.Clock
	// Out receives command output; nil means stdout.
	Out io.Writer
	// Ctx is cancelled on interrupt; nil means context.Background().
	Ctx context.Context

	broker   changes.Broker
	recorder *activity.Recorder
}

func (c *Context) Stdout() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Context returns the command's cancellation context.
func (c *Context) Context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

func (c *Context) clock() utils.Clock {
	if c.Now == nil {
		return utils.SystemClock
	}
	return c.Now
}

// Instant is the current time on the context's clock.
func (c *Context) Instant() time.Time {
	return c.clock()()
}

// IsSQLite reports whether the store is a local sqlite file.
func (c *Context) IsSQLite() bool {
	_, pg := c.Store.(*postgres.Store)
	return !pg
}

func (c *Context) Settings() (models.Settings, error) {
	settings, err := c.Store.GetSettings()
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// Calendar fixes today and the current hour in the configured timezone.
func (c *Context) Calendar() (utils.Calendar, error) {
	settings, err := c.Settings()
	if err != nil {
		return utils.Calendar{}, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return utils.Calendar{}, err
	}
	return utils.Calendar{Now: c.clock(), Loc: loc}, nil
}

// Broker returns the change feed: Redis when configured, Postgres
// LISTEN/NOTIFY for a Postgres store, otherwise in-process only.
func (c *Context) Broker() changes.Broker {
	if c.broker != nil {
		return c.broker
	}
	switch {
	case c.Redis != nil:
		c.broker = changes.NewRedisBroker(c.Redis)
	case !c.IsSQLite():
		pg := c.Store.(*postgres.Store)
		c.broker = changes.NewPostgresBroker(pg.GetDB(), pg.ConnString())
	default:
		c.broker = changes.NewMemoryBroker()
	}
	return c.broker
}

func (c *Context) Recorder() *activity.Recorder {
	if c.recorder == nil {
		c.recorder = activity.NewRecorder(c.Store, c.Broker(), c.clock())
	}
	return c.recorder
}

func (c *Context) ScheduleService() (*schedule.Service, error) {
	cal, err := c.Calendar()
	if err != nil {
		return nil, err
	}
	opts := []schedule.Option{schedule.WithDrafts(c.State)}
	if c.IsSQLite() {
		opts = append(opts, schedule.WithBeforeSave(c.autoBackup))
	}
	return schedule.NewService(c.Store, c.Recorder(), cal, opts...), nil
}

func (c *Context) TrackingService() (*tracking.Service, error) {
	cal, err := c.Calendar()
	if err != nil {
		return nil, err
	}
	return tracking.NewService(c.Store, c.Recorder(), cal), nil
}

// PresenceTracker builds a tracker on the shared heartbeat map: the Redis
// hash when configured, otherwise local state.
func (c *Context) PresenceTracker(opts ...presence.Option) (*presence.Tracker, error) {
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	var store presence.Store = presence.NewFileStore(c.State)
	if c.Redis != nil {
		store = presence.NewRedisStore(c.Redis)
	}
	base := []presence.Option{
		presence.WithTTL(settings.PresenceTTL()),
		presence.WithInterval(settings.HeartbeatInterval()),
		presence.WithClock(c.clock()),
		presence.WithBroker(c.Broker()),
	}
	return presence.NewTracker(store, append(base, opts...)...), nil
}

// Dispatcher builds the notifier. A dry run prints notices and never marks
// them sent.
func (c *Context) Dispatcher(dryRun bool) (*notifier.Dispatcher, error) {
	settings, err := c.Settings()
	if err != nil {
		return nil, err
	}
	cal, err := c.Calendar()
	if err != nil {
		return nil, err
	}
	window := cal.Window(constants.NotifiedRetentionDays)

	var sender notifier.Sender
	if dryRun {
		sender = notifier.WriterSender{W: c.Stdout()}
	} else {
		senders := notifier.MultiSender{notifier.NewTraySender()}
		if url := keyring.Lookup(settings.WebhookURL, keyring.EntryWebhook); url != "" {
			senders = append(senders, notifier.NewWebhookSender(url))
		}
		sender = senders
	}

	var late, just notifier.NotifiedSet
	if c.Redis != nil {
		late = notifier.NewRedisSet(c.Redis, "late")
		just = notifier.NewRedisSet(c.Redis, "justifications")
	} else {
		late = notifier.NewLocalSet(c.State, localstate.KeyNotifiedLate).Retain(window)
		just = notifier.NewLocalSet(c.State, localstate.KeyNotifiedJustifications).Retain(window)
	}

	d := notifier.NewDispatcher(sender, late, just)
	d.SetDryRun(dryRun)
	d.SetWindow(window)
	return d, nil
}

func (c *Context) Loader() *board.Loader {
	return board.NewLoader(c.Store, c.clock())
}

// Reviews returns the review marks, limited to the review retention window.
func (c *Context) Reviews() *board.Reviews {
	reviews := board.NewReviews(c.State)
	cal, err := c.Calendar()
	if err != nil {
		logger.Warn("Review marks kept without retention", "error", err)
		return reviews
	}
	return reviews.Retain(cal.Window(constants.ReviewRetentionDays))
}

// PerformAutomaticBackup creates an automatic backup and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	if !c.IsSQLite() {
		return
	}
	if _, err := backup.NewManager(c.Store.GetConfigPath()).AutoBackup(autoBackupMinAge); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

func (c *Context) autoBackup() error {
	_, err := backup.NewManager(c.Store.GetConfigPath()).AutoBackup(autoBackupMinAge)
	return err
}

// RequireSupervisor checks pin against the supervisor PIN.
func (c *Context) RequireSupervisor(pin string) error {
	settings, err := c.Settings()
	if err != nil {
		return err
	}
	if err := auth.VerifySupervisor(settings, pin); err != nil {
		if errors.Is(err, auth.ErrSupervisorPINUnset) {
			return fmt.Errorf("%w: run 'opsboard supervisor pin' first", err)
		}
		return err
	}
	return nil
}

// AuthorizeOperator accepts the operator's own PIN or the supervisor PIN and
// returns the actor to record.
func (c *Context) AuthorizeOperator(username, pin string) (string, error) {
	p, err := c.Store.GetProfile(username)
	if err != nil {
		return "", err
	}
	if err := auth.VerifyOperator(p, pin); err == nil {
		return username, nil
	} else if pin == "" {
		return "", err
	}
	if err := c.RequireSupervisor(pin); err != nil {
		return "", auth.ErrInvalidPIN
	}
	return SupervisorActor, nil
}

// Close releases the broker and the Redis client.
func (c *Context) Close() {
	if c.broker != nil {
		if err := c.broker.Close(); err != nil {
			logger.Warn("Failed to close change feed", "error", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}
}

// SQLStore is implemented by both database backends.
type SQLStore interface {
	GetDB() *sql.DB
	Migrate(logFn func(string)) error
}

// Dialect returns the migration dialect of the store.
func (c *Context) Dialect() migration.Dialect {
	if c.IsSQLite() {
		return migration.SQLite
	}
	return migration.Postgres
}
