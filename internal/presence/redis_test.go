package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/opsboard/internal/changes"
	"github.com/julianstephens/opsboard/internal/constants"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	s := NewRedisStore(client)

	t0 := time.UnixMilli(1710493200000)
	require.NoError(t, s.Put(ctx, "ana", t0))
	require.NoError(t, s.Put(ctx, "bea", t0.Add(-time.Minute)))
	mr.HSet(constants.RedisPresenceKey, "broken", "yesterday")

	beats, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, beats, 2)
	assert.True(t, beats["ana"].Equal(t0))

	require.NoError(t, s.Remove(ctx, "ana"))
	beats, err = s.All(ctx)
	require.NoError(t, err)
	assert.NotContains(t, beats, "ana")

	pruned, err := s.Prune(ctx, t0, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	beats, err = s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, beats)
}

func TestRedisTrackerSharedAcrossInstances(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()
	now := time.Now()
	clock := func() time.Time { return now }

	// Two dashboards sharing one Redis see each other's operators.
	a := NewTracker(NewRedisStore(client), WithClock(clock), WithBroker(changes.NewRedisBroker(client)))
	b := NewTracker(NewRedisStore(client), WithClock(clock))

	require.NoError(t, a.Heartbeat(ctx, "ana"))
	ids, err := b.Recompute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana"}, ids)

	require.NoError(t, a.Leave(ctx, "ana"))
	ids, err = b.Recompute(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisTrackerReadFailure(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()
	tr := NewTracker(NewRedisStore(client))

	require.NoError(t, tr.Heartbeat(ctx, "ana"))
	_, err := tr.Recompute(ctx)
	require.NoError(t, err)

	mr.Close()
	_, err = tr.Recompute(ctx)
	assert.Error(t, err)
	assert.True(t, tr.IsOnline("ana"), "stale set kept on read failure")
}
