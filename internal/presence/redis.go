package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/logger"
)

// RedisStore keeps heartbeats in one hash: field = operator, value = unix ms.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: constants.RedisPresenceKey}
}

func (s *RedisStore) Put(ctx context.Context, id string, at time.Time) error {
	if err := s.client.HSet(ctx, s.key, id, at.UnixMilli()).Err(); err != nil {
		return fmt.Errorf("failed to record heartbeat for %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, s.key, id).Err(); err != nil {
		return fmt.Errorf("failed to remove heartbeat for %s: %w", id, err)
	}
	return nil
}

// All skips entries that do not parse rather than failing the whole read.
func (s *RedisStore) All(ctx context.Context) (map[string]time.Time, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read heartbeats: %w", err)
	}
	out := make(map[string]time.Time, len(raw))
	for id, v := range raw {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			logger.Warn("Ignoring malformed heartbeat", "operator", id, "value", v)
			continue
		}
		out[id] = time.UnixMilli(ms)
	}
	return out, nil
}

// Prune deletes entries older than maxAge so the hash does not grow forever.
func (s *RedisStore) Prune(ctx context.Context, now time.Time, maxAge time.Duration) (int, error) {
	beats, err := s.All(ctx)
	if err != nil {
		return 0, err
	}
	var stale []string
	for id, at := range beats {
		if now.Sub(at) > maxAge {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.client.HDel(ctx, s.key, stale...).Err(); err != nil {
		return 0, fmt.Errorf("failed to prune heartbeats: %w", err)
	}
	return len(stale), nil
}
