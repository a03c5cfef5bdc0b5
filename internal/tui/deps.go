package tui

import (
	"context"
	"fmt"

	"github.com/julianstephens/opsboard/internal/board"
	"github.com/julianstephens/opsboard/internal/changes"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/presence"
	"github.com/julianstephens/opsboard/internal/tracking"
	"github.com/julianstephens/opsboard/internal/utils"
)

// ActivityReader lists recent activity, newest first.
type ActivityReader interface {
	GetRecentActivity(limit int) ([]models.ActivityLogEntry, error)
}

// Deps is everything the dashboard reads from and writes through.
type Deps struct {
	Loader    *board.Loader
	Presence  *presence.Tracker
	Tracking  *tracking.Service
	Calendar  utils.Calendar
	Broker    changes.Broker
	Activity  ActivityReader
	Authorize func(username, pin string) (string, error)
	As        string
	LogLimit  int

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// DepsFrom wires the dashboard to the command context. When as is set the
// operator beats presence until Close.
func DepsFrom(ctx *cli.Context, as string) (Deps, error) {
	settings, err := ctx.Settings()
	if err != nil {
		return Deps{}, err
	}
	cal, err := ctx.Calendar()
	if err != nil {
		return Deps{}, err
	}
	tracker, err := ctx.PresenceTracker()
	if err != nil {
		return Deps{}, err
	}
	svc, err := ctx.TrackingService()
	if err != nil {
		return Deps{}, err
	}
	if as != "" {
		if _, err := ctx.Store.GetProfile(as); err != nil {
			return Deps{}, fmt.Errorf("unknown operator %q: %w", as, err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx.Context())
	d := Deps{
		Loader:    ctx.Loader(),
		Presence:  tracker,
		Tracking:  svc,
		Calendar:  cal,
		Broker:    ctx.Broker(),
		Activity:  ctx.Store,
		Authorize: ctx.AuthorizeOperator,
		As:        as,
		LogLimit:  settings.ActivityLogLimit,
		ctx:       runCtx,
		cancel:    cancel,
	}

	if as != "" {
		done := make(chan struct{})
		d.done = done
		rec := ctx.Recorder()
		rec.Record(runCtx, as, constants.ActionLogin, as)
		go func() {
			defer close(done)
			if err := tracker.KeepAlive(runCtx, as); err != nil {
				logger.Warn("Dashboard heartbeat stopped", "operator", as, "error", err)
			}
			rec.Record(context.Background(), as, constants.ActionLogout, as)
		}()
	}
	return d, nil
}

// Context is cancelled by Close.
func (d Deps) Context() context.Context {
	if d.ctx == nil {
		return context.Background()
	}
	return d.ctx
}

// Close stops the change feed subscription and the heartbeat, waiting for
// the operator to leave.
func (d Deps) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.done != nil {
		<-d.done
	}
}
