package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/julianstephens/opsboard/internal/board"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/logger"
)

const (
	DefaultRateLimit = 20
	DefaultRateBurst = 40
)

// Server is the HTTP server for the board API.
type Server struct {
	httpServer   *http.Server
	h            *Handlers
	lateInterval time.Duration
}

// Option configures a Server.
type Option func(*options)

type options struct {
	limit        rate.Limit
	burst        int
	lateInterval time.Duration
}

// WithRateLimit sets the per-client request rate. Zero disables it.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) { o.limit, o.burst = limit, burst }
}

// WithLateInterval sets how often late blocks are evaluated. Zero disables the loop.
func WithLateInterval(d time.Duration) Option {
	return func(o *options) { o.lateInterval = d }
}

func New(addr string, d Deps, opts ...Option) *Server {
	o := options{limit: DefaultRateLimit, burst: DefaultRateBurst, lateInterval: constants.LateEvaluationInterval}
	for _, opt := range opts {
		opt(&o)
	}

	h := NewHandlers(d)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/board", h.GetBoard)
	mux.HandleFunc("GET /api/activity", h.GetActivity)
	mux.HandleFunc("GET /api/operators/{username}/today", h.GetToday)
	mux.HandleFunc("GET /api/operators/{username}/weekly", h.GetWeekly)
	mux.HandleFunc("POST /api/operators/{username}/blocks/{blockID}/toggle", h.ToggleTask)
	mux.HandleFunc("PUT /api/operators/{username}/tracking/{key}/report", h.PutReport)
	mux.HandleFunc("PUT /api/operators/{username}/tracking/{key}/justification", h.PutJustification)
	mux.Handle("PUT /api/operators/{username}/schedule", h.SupervisorOnly(http.HandlerFunc(h.PutSchedule)))

	mux.HandleFunc("GET /api/presence", h.ListPresence)
	mux.HandleFunc("POST /api/presence/{username}", h.Heartbeat)
	mux.HandleFunc("DELETE /api/presence/{username}", h.Leave)

	handler := Metrics(RateLimit(o.limit, o.burst)(mux))

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		h:            h,
		lateInterval: o.lateInterval,
	}
}

// Handler exposes the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the HTTP server and the late-block loop. It blocks until the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("API listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	if s.h.Dispatcher != nil && s.lateInterval > 0 {
		go s.lateLoop(ctx)
	}

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutDownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return s.Shutdown(shutDownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) lateLoop(ctx context.Context) {
	ticker := time.NewTicker(s.lateInterval)
	defer ticker.Stop()
	for {
		if _, err := s.h.NotifyPass(ctx); err != nil {
			logger.Warn("Notification pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// NotifyPass runs one late and justification notification pass when
// notifications are enabled.
func (h *Handlers) NotifyPass(ctx context.Context) (board.PassResult, error) {
	settings, err := h.Store.GetSettings()
	if err != nil {
		return board.PassResult{}, err
	}
	if !settings.NotificationsEnabled {
		return board.PassResult{}, nil
	}

	snap, err := h.Loader.Load()
	if snap == nil {
		return board.PassResult{}, err
	}
	var reviewed func(string) bool
	if h.Reviews != nil {
		reviewed = h.Reviews.JustificationReviewed
	}
	res, err := board.NotifyPass(ctx, snap, h.Calendar, h.Dispatcher, reviewed)
	if len(res.Late.Sent) > 0 && h.Recorder != nil {
		h.Recorder.Record(ctx, "system", constants.ActionLateNotified, strings.Join(res.Late.Sent, ", "))
	}
	return res, err
}
