package changes

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/opsboard/internal/constants"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed before an event arrived")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBrokerFanOut(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewMemoryBroker()

	all, err := b.Subscribe(ctx)
	require.NoError(t, err)
	presence, err := b.Subscribe(ctx, constants.TopicPresence)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, Changed(constants.TopicTracking, "ana")))
	require.NoError(t, b.Publish(ctx, Event{Topic: constants.TopicPresence, Type: TypeHeartbeat, Data: "ana"}))

	assert.Equal(t, constants.TopicTracking, receive(t, all).Topic)
	assert.Equal(t, constants.TopicPresence, receive(t, all).Topic)

	ev := receive(t, presence)
	assert.Equal(t, TypeHeartbeat, ev.Type)
	assert.Equal(t, "ana", ev.Data)
	assertNoEvent(t, presence)
}

func TestMemoryBrokerUnsubscribeOnCancel(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after the subscriber left must not panic.
	require.NoError(t, b.Publish(context.Background(), Changed(constants.TopicProfiles, "")))
}

func TestMemoryBrokerClose(t *testing.T) {
	b := NewMemoryBroker()
	ch, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, ok := <-ch
	assert.False(t, ok)

	late, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	_, ok = <-late
	assert.False(t, ok, "subscribing to a closed broker yields a closed channel")
}

func TestRedisBroker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewRedisBroker(client)

	tracking, err := b.Subscribe(ctx, constants.TopicTracking)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, Changed(constants.TopicProfiles, "")))
	require.NoError(t, b.Publish(ctx, Changed(constants.TopicTracking, "ana")))

	ev := receive(t, tracking)
	assert.Equal(t, Changed(constants.TopicTracking, "ana"), ev)
	assertNoEvent(t, tracking)
}

func TestRedisBrokerDropsMalformed(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := NewRedisBroker(client)

	ch, err := b.Subscribe(ctx, constants.TopicPresence)
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, constants.RedisChannelPrefix+constants.TopicPresence, "{oops").Err())
	require.NoError(t, b.Publish(ctx, Event{Topic: constants.TopicPresence, Type: TypeHeartbeatRemove, Data: "ana"}))

	ev := receive(t, ch)
	assert.Equal(t, TypeHeartbeatRemove, ev.Type)
}

func TestPostgresBrokerPublish(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_notify($1, $2)")).
		WithArgs("opsboard_tracking_data", `{"topic":"tracking_data","type":"CHANGED","data":"ana"}`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	b := NewPostgresBroker(db, "postgres://localhost/opsboard")
	require.NoError(t, b.Publish(context.Background(), Changed(constants.TopicTracking, "ana")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "opsboard_presence", Channel(constants.TopicPresence))
	assert.Len(t, AllTopics(), 6)
}
