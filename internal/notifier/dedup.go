package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/localstate"
)

// NotifiedSet remembers which keys were already announced.
type NotifiedSet interface {
	AlreadyNotified(ctx context.Context, key string) (bool, error)
	MarkNotified(ctx context.Context, keys ...string) error
}

// LocalSet keeps the set in the local state file.
type LocalSet struct {
	state  *localstate.Store
	key    string
	oldest func() string
}

func NewLocalSet(state *localstate.Store, key string) *LocalSet {
	return &LocalSet{state: state, key: key}
}

// Retain makes MarkNotified drop keys dated before oldest().
func (s *LocalSet) Retain(oldest func() string) *LocalSet {
	s.oldest = oldest
	return s
}

func (s *LocalSet) AlreadyNotified(_ context.Context, key string) (bool, error) {
	return s.state.SetContains(s.key, key), nil
}

func (s *LocalSet) MarkNotified(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if s.oldest == nil {
		_, err := s.state.AddToSet(s.key, keys...)
		return err
	}
	cutoff := s.oldest()
	_, err := s.state.AddToSetRetaining(s.key, func(k string) bool {
		return aggregate.DatedSince(k, cutoff)
	}, keys...)
	return err
}

// RedisSet keeps the set in Redis so every dashboard and the server share it.
// Members expire with the whole set after ttl of inactivity.
type RedisSet struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisSet(client *redis.Client, name string) *RedisSet {
	return &RedisSet{
		client: client,
		key:    constants.RedisNotifiedKeyPrefix + name,
		ttl:    constants.NotifiedKeyTTL,
	}
}

func (s *RedisSet) AlreadyNotified(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check notified set: %w", err)
	}
	return ok, nil
}

func (s *RedisSet) MarkNotified(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	members := make([]interface{}, len(keys))
	for i, k := range keys {
		members[i] = k
	}
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.key, members...)
	pipe.Expire(ctx, s.key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update notified set: %w", err)
	}
	return nil
}
