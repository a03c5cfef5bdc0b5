package notifier

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
)

func TestRedisSet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	set := NewRedisSet(client, "late")
	ok, err := set.AlreadyNotified(ctx, "2024-03-15-ana-b1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, set.MarkNotified(ctx, "2024-03-15-ana-b1", "2024-03-15-ana-b2"))
	ok, err = set.AlreadyNotified(ctx, "2024-03-15-ana-b1")
	require.NoError(t, err)
	assert.True(t, ok)

	key := constants.RedisNotifiedKeyPrefix + "late"
	assert.Equal(t, constants.NotifiedKeyTTL, mr.TTL(key))
	require.NoError(t, set.MarkNotified(ctx))
}

func TestDispatcherSharedRedisSet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	// Two processes sharing the set send one notice between them.
	first := &recordingSender{}
	second := &recordingSender{}
	a := NewDispatcher(first, NewRedisSet(client, "late"), NewRedisSet(client, "justifications"))
	b := NewDispatcher(second, NewRedisSet(client, "late"), NewRedisSet(client, "justifications"))

	pair := models.LatePair{Date: "2024-03-15", Username: "ana", BlockID: "b1", Label: "09:00"}
	_, err := a.NotifyLate(ctx, []models.LatePair{pair})
	require.NoError(t, err)
	res, err := b.NotifyLate(ctx, []models.LatePair{pair})
	require.NoError(t, err)

	assert.Len(t, first.msgs, 1)
	assert.Empty(t, second.msgs)
	assert.Equal(t, 1, res.Skipped)
}
