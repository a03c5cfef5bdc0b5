// Package localstate is a best-effort key/value cache persisted as one JSON
// file. Anything in it can be lost without harm: a missing or corrupt file
// reads as empty.
package localstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/julianstephens/opsboard/internal/logger"
)

// Keys used by the board.
const (
	KeyHeartbeats             = "heartbeats"
	KeyNotifiedLate           = "notified_late"
	KeyNotifiedJustifications = "notified_justifications"
	KeyReviewedReports        = "reviewed_reports"
	KeyReviewedJustifications = "reviewed_justifications"
	keyDraftPrefix            = "draft:"
)

// DraftKey returns the key holding username's unsaved schedule edit.
func DraftKey(username string) string {
	return keyDraftPrefix + username
}

type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// load reads the whole file. Corruption is logged and treated as empty.
func (s *Store) load() map[string]json.RawMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read local state, treating as empty", "path", s.path, "error", err)
		}
		return map[string]json.RawMessage{}
	}
	state := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &state); err != nil {
		logger.Warn("Local state is corrupt, treating as empty", "path", s.path, "error", err)
		return map[string]json.RawMessage{}
	}
	return state
}

func (s *Store) save(state map[string]json.RawMessage) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize local state: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to write local state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write local state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write local state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace local state: %w", err)
	}
	return nil
}

// Get decodes key into v. It returns false when the key is absent or its value
// does not decode; v is left untouched in that case.
func (s *Store) Get(key string, v interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.load()[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		logger.Warn("Local state value is malformed, ignoring", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores v under key.
func (s *Store) Set(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	state[key] = raw
	return s.save(state)
}

// Update reads key into v, calls fn, and writes v back if fn returns nil.
// The read-modify-write holds the in-process lock only; other processes
// sharing the file are last-write-wins.
func (s *Store) Update(key string, v interface{}, fn func(found bool) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	found := false
	if raw, ok := state[key]; ok {
		if err := json.Unmarshal(raw, v); err != nil {
			logger.Warn("Local state value is malformed, resetting", "key", key, "error", err)
		} else {
			found = true
		}
	}
	if err := fn(found); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	state[key] = raw
	return s.save(state)
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	if _, ok := state[key]; !ok {
		return nil
	}
	delete(state, key)
	return s.save(state)
}

// Keys lists stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.load()
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddToSet adds members to the string set under key and reports which were new.
func (s *Store) AddToSet(key string, members ...string) ([]string, error) {
	return s.AddToSetRetaining(key, nil, members...)
}

// AddToSetRetaining is AddToSet that also drops existing members for which
// keep returns false, in the same write. A nil keep retains everything.
func (s *Store) AddToSetRetaining(key string, keep func(member string) bool, members ...string) ([]string, error) {
	var set []string
	var added []string
	err := s.Update(key, &set, func(bool) error {
		if keep != nil {
			kept := set[:0]
			for _, m := range set {
				if keep(m) {
					kept = append(kept, m)
				}
			}
			set = kept
		}
		existing := make(map[string]bool, len(set))
		for _, m := range set {
			existing[m] = true
		}
		for _, m := range members {
			if existing[m] {
				continue
			}
			existing[m] = true
			set = append(set, m)
			added = append(added, m)
		}
		return nil
	})
	return added, err
}

// SetContains reports whether member is in the string set under key.
func (s *Store) SetContains(key, member string) bool {
	var set []string
	if !s.Get(key, &set) {
		return false
	}
	for _, m := range set {
		if m == member {
			return true
		}
	}
	return false
}
