package system

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/julianstephens/opsboard/internal/api"
	"github.com/julianstephens/opsboard/internal/cli"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/logger"
)

// ServeCmd runs the board API with the presence recompute loop and the
// late-block notifier.
type ServeCmd struct {
	Addr     string  `help:"Listen address." default:":8080" env:"OPSBOARD_ADDR"`
	Rate     float64 `help:"Requests per second allowed per client; 0 disables limiting." default:"20"`
	Burst    int     `help:"Burst size for the per-client limiter." default:"40"`
	NoNotify bool    `help:"Do not run the late-block notification loop."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	cal, err := ctx.Calendar()
	if err != nil {
		return err
	}
	tracker, err := ctx.PresenceTracker()
	if err != nil {
		return err
	}
	schedules, err := ctx.ScheduleService()
	if err != nil {
		return err
	}
	tracking, err := ctx.TrackingService()
	if err != nil {
		return err
	}

	deps := api.Deps{
		Store:    ctx.Store,
		Loader:   ctx.Loader(),
		Tracking: tracking,
		Schedule: schedules,
		Presence: tracker,
		Recorder: ctx.Recorder(),
		Reviews:  ctx.Reviews(),
		Calendar: cal,
	}
	opts := []api.Option{api.WithRateLimit(rate.Limit(c.Rate), c.Burst)}
	if c.NoNotify {
		opts = append(opts, api.WithLateInterval(0))
	} else {
		d, err := ctx.Dispatcher(false)
		if err != nil {
			return err
		}
		deps.Dispatcher = d
		opts = append(opts, api.WithLateInterval(constants.LateEvaluationInterval))
	}

	if n, err := schedules.EnsureAllDailySnapshots(ctx.Context()); err != nil {
		logger.Warn("Daily snapshots failed", "error", err)
	} else if n > 0 {
		logger.Info("Daily snapshots written", "count", n)
	}

	go func() {
		if err := tracker.Run(ctx.Context()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Presence loop stopped", "error", err)
		}
	}()

	fmt.Fprintf(ctx.Stdout(), "Serving opsboard API on %s\n", c.Addr)
	return api.New(c.Addr, deps, opts...).Run(ctx.Context())
}
