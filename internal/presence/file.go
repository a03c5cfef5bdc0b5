package presence

import (
	"context"
	"time"

	"github.com/julianstephens/opsboard/internal/localstate"
)

// FileStore keeps heartbeats in the local state file as unix milliseconds.
type FileStore struct {
	state *localstate.Store
}

func NewFileStore(state *localstate.Store) *FileStore {
	return &FileStore{state: state}
}

func (s *FileStore) Put(_ context.Context, id string, at time.Time) error {
	beats := map[string]int64{}
	return s.state.Update(localstate.KeyHeartbeats, &beats, func(bool) error {
		if beats == nil {
			beats = map[string]int64{}
		}
		beats[id] = at.UnixMilli()
		return nil
	})
}

func (s *FileStore) Remove(_ context.Context, id string) error {
	beats := map[string]int64{}
	return s.state.Update(localstate.KeyHeartbeats, &beats, func(bool) error {
		delete(beats, id)
		return nil
	})
}

func (s *FileStore) All(context.Context) (map[string]time.Time, error) {
	var beats map[string]int64
	out := map[string]time.Time{}
	if !s.state.Get(localstate.KeyHeartbeats, &beats) {
		return out, nil
	}
	for id, ms := range beats {
		out[id] = time.UnixMilli(ms)
	}
	return out, nil
}

func (s *FileStore) Prune(_ context.Context, now time.Time, maxAge time.Duration) (int, error) {
	beats := map[string]int64{}
	pruned := 0
	err := s.state.Update(localstate.KeyHeartbeats, &beats, func(bool) error {
		for id, ms := range beats {
			if now.Sub(time.UnixMilli(ms)) > maxAge {
				delete(beats, id)
				pruned++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}
