// Package presence approximates "online now" from heartbeat timestamps.
package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/opsboard/internal/changes"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/utils"
)

// Store persists the shared liveness map.
type Store interface {
	Put(ctx context.Context, id string, at time.Time) error
	Remove(ctx context.Context, id string) error
	// All returns every recorded heartbeat. Backends return an empty map, not
	// an error, when the stored state is malformed.
	All(ctx context.Context) (map[string]time.Time, error)
	// Prune deletes entries older than maxAge at now and returns how many went.
	Prune(ctx context.Context, now time.Time, maxAge time.Duration) (int, error)
}

// Service is what the rest of the board depends on.
type Service interface {
	Heartbeat(ctx context.Context, id string) error
	Leave(ctx context.Context, id string) error
	ActiveSet() []string
	IsOnline(id string) bool
}

// Active returns ids whose last beat is no older than ttl at now, sorted.
func Active(beats map[string]time.Time, now time.Time, ttl time.Duration) []string {
	var ids []string
	for id, at := range beats {
		if now.Sub(at) <= ttl {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Tracker keeps the last computed active set. Membership only changes when
// Recompute runs, either on the interval or on a presence event.
type Tracker struct {
	store    Store
	broker   changes.Broker
	ttl      time.Duration
	interval time.Duration
	now      utils.Clock

	mu       sync.RWMutex
	active   map[string]struct{}
	onChange func([]string)
}

// Option configures a Tracker.
type Option func(*Tracker)

func WithTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(t *Tracker) {
		if interval > 0 {
			t.interval = interval
		}
	}
}

func WithClock(now utils.Clock) Option {
	return func(t *Tracker) { t.now = now }
}

func WithBroker(b changes.Broker) Option {
	return func(t *Tracker) { t.broker = b }
}

// WithOnChange registers a callback invoked after a recompute alters the set.
func WithOnChange(fn func(active []string)) Option {
	return func(t *Tracker) { t.onChange = fn }
}

func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		ttl:      constants.DefaultPresenceTTL,
		interval: constants.DefaultHeartbeatInterval,
		now:      utils.SystemClock,
		active:   map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TTL returns the configured staleness bound.
func (t *Tracker) TTL() time.Duration { return t.ttl }

// Interval returns the beat and recompute period.
func (t *Tracker) Interval() time.Duration { return t.interval }

// Heartbeat records id as alive now and announces it.
func (t *Tracker) Heartbeat(ctx context.Context, id string) error {
	if err := t.store.Put(ctx, id, t.now()); err != nil {
		return err
	}
	t.publish(ctx, changes.TypeHeartbeat, id)
	return nil
}

// Leave removes id so it drops offline at the next recompute instead of waiting out the TTL.
func (t *Tracker) Leave(ctx context.Context, id string) error {
	if err := t.store.Remove(ctx, id); err != nil {
		return err
	}
	t.publish(ctx, changes.TypeHeartbeatRemove, id)
	return nil
}

func (t *Tracker) publish(ctx context.Context, typ, id string) {
	if t.broker == nil {
		return
	}
	ev := changes.Event{Topic: constants.TopicPresence, Type: typ, Data: id}
	if err := t.broker.Publish(ctx, ev); err != nil {
		logger.Warn("Failed to broadcast presence signal", "type", typ, "operator", id, "error", err)
	}
}

// Recompute rebuilds the active set from the store and drops heartbeats far
// past the TTL. A read failure keeps the previous set and is returned.
func (t *Tracker) Recompute(ctx context.Context) ([]string, error) {
	beats, err := t.store.All(ctx)
	if err != nil {
		logger.Warn("Failed to read heartbeats, keeping previous presence", "error", err)
		return t.ActiveSet(), err
	}
	now := t.now()
	ids := Active(beats, now, t.ttl)
	t.prune(ctx, beats, now)

	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}

	t.mu.Lock()
	changed := !sameSet(t.active, next)
	t.active = next
	cb := t.onChange
	t.mu.Unlock()

	if changed && cb != nil {
		cb(ids)
	}
	return ids, nil
}

// PruneAge is how old a heartbeat gets before Recompute deletes it.
func (t *Tracker) PruneAge() time.Duration {
	return t.ttl * constants.PresencePruneFactor
}

func (t *Tracker) prune(ctx context.Context, beats map[string]time.Time, now time.Time) {
	maxAge := t.PruneAge()
	stale := false
	for _, at := range beats {
		if now.Sub(at) > maxAge {
			stale = true
			break
		}
	}
	if !stale {
		return
	}
	n, err := t.store.Prune(ctx, now, maxAge)
	if err != nil {
		logger.Warn("Failed to prune stale heartbeats", "error", err)
		return
	}
	logger.Debug("Pruned stale heartbeats", "count", n)
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// ActiveSet returns the last computed set, sorted.
func (t *Tracker) ActiveSet() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.active))
	for id := range t.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsOnline reports membership in the last computed set.
func (t *Tracker) IsOnline(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.active[id]
	return ok
}

// Run recomputes on every interval tick and on every presence event until ctx ends.
func (t *Tracker) Run(ctx context.Context) error {
	var events <-chan changes.Event
	if t.broker != nil {
		ch, err := t.broker.Subscribe(ctx, constants.TopicPresence)
		if err != nil {
			logger.Warn("Presence broadcast unavailable, polling only", "error", err)
		} else {
			events = ch
		}
	}

	_, _ = t.Recompute(ctx)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, _ = t.Recompute(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			logger.Debug("Presence signal", "type", ev.Type, "operator", ev.Data)
			_, _ = t.Recompute(ctx)
		}
	}
}

// KeepAlive beats for id on every interval until ctx ends, then leaves.
// The leave uses a fresh short context since ctx is already done.
func (t *Tracker) KeepAlive(ctx context.Context, id string) error {
	if err := t.Heartbeat(ctx, id); err != nil {
		return err
	}
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			leaveCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := t.Leave(leaveCtx, id); err != nil {
				logger.Warn("Failed to remove heartbeat on exit", "operator", id, "error", err)
			}
			return nil
		case <-ticker.C:
			if err := t.Heartbeat(ctx, id); err != nil {
				logger.Warn("Heartbeat failed", "operator", id, "error", err)
			}
		}
	}
}
