// Package schedule edits operator schedules: normalizing, saving with
// snapshots of prior days, daily snapshots and unsaved drafts.
package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/opsboard/internal/activity"
	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/localstate"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
	"github.com/julianstephens/opsboard/internal/utils"
)

// Service owns schedule writes.
type Service struct {
	store      storage.Provider
	recorder   *activity.Recorder
	drafts     *localstate.Store
	cal        utils.Calendar
	beforeSave func() error
}

// Option configures a Service.
type Option func(*Service)

// WithDrafts enables draft storage in local state.
func WithDrafts(state *localstate.Store) Option {
	return func(s *Service) { s.drafts = state }
}

// WithBeforeSave runs fn before every schedule replace. A failure is logged
// and the save goes ahead.
func WithBeforeSave(fn func() error) Option {
	return func(s *Service) { s.beforeSave = fn }
}

func NewService(store storage.Provider, recorder *activity.Recorder, cal utils.Calendar, opts ...Option) *Service {
	s := &Service{store: store, recorder: recorder, cal: cal}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the operator's current schedule.
func (s *Service) Get(username string) ([]models.ScheduleBlock, error) {
	return s.store.GetSchedule(username)
}

// ForDate returns the schedule as it stood on date: its snapshot when one
// exists, otherwise the current schedule.
func (s *Service) ForDate(username, date string) ([]models.ScheduleBlock, bool, error) {
	snap, err := s.store.GetSnapshot(username, date)
	if err == nil {
		return snap.Blocks, true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}
	blocks, err := s.store.GetSchedule(username)
	return blocks, false, err
}

// Save replaces username's schedule. The old schedule is first frozen as a
// snapshot for each of the preserveDays days before today that has none,
// so history keeps showing what was scheduled then.
func (s *Service) Save(ctx context.Context, actor, username string, blocks []models.ScheduleBlock, preserveDays int) ([]models.ScheduleBlock, error) {
	normalized, err := Normalize(username, blocks)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetProfile(username); err != nil {
		return nil, err
	}

	old, err := s.store.GetSchedule(username)
	if err != nil {
		return nil, fmt.Errorf("failed to read current schedule: %w", err)
	}
	if preserveDays > 0 && len(old) > 0 {
		if err := s.preserve(username, old, preserveDays); err != nil {
			return nil, err
		}
	}

	if s.beforeSave != nil {
		if err := s.beforeSave(); err != nil {
			logger.Warn("Pre-save hook failed", "username", username, "error", err)
		}
	}

	if err := s.store.ReplaceSchedule(username, normalized); err != nil {
		return nil, err
	}
	if s.drafts != nil {
		if err := s.drafts.Delete(localstate.DraftKey(username)); err != nil {
			logger.Warn("Failed to discard draft", "username", username, "error", err)
		}
	}

	s.recorder.Changed(ctx, constants.TopicScheduleBlocks, username)
	s.recorder.Record(ctx, actor, constants.ActionScheduleUpdated,
		fmt.Sprintf("%s: %d blocks, %d tasks", username, len(normalized), models.TotalTasks(normalized)))
	return normalized, nil
}

func (s *Service) preserve(username string, old []models.ScheduleBlock, days int) error {
	today := s.cal.Today()
	for d := 1; d <= days; d++ {
		date, err := utils.ShiftDay(today, -d)
		if err != nil {
			return err
		}
		if _, err := s.store.GetSnapshot(username, date); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		snap := models.ScheduleSnapshot{Username: username, Date: date, Blocks: old, CreatedAt: s.cal.Instant()}
		if err := s.store.SaveSnapshot(snap); err != nil {
			return fmt.Errorf("failed to preserve %s: %w", date, err)
		}
	}
	return nil
}

// EnsureDailySnapshot writes today's snapshot of the schedule once per day.
// It reports whether a snapshot was written.
func (s *Service) EnsureDailySnapshot(ctx context.Context, username string) (bool, error) {
	today := s.cal.Today()
	if _, err := s.store.GetSnapshot(username, today); err == nil {
		return false, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	blocks, err := s.store.GetSchedule(username)
	if err != nil {
		return false, err
	}
	if len(blocks) == 0 {
		return false, nil
	}
	if err := s.store.SaveSnapshot(models.ScheduleSnapshot{Username: username, Date: today, Blocks: blocks, CreatedAt: s.cal.Instant()}); err != nil {
		return false, err
	}
	s.recorder.Changed(ctx, constants.TopicSnapshots, username)
	return true, nil
}

// EnsureAllDailySnapshots runs EnsureDailySnapshot for every operator and
// returns how many snapshots were written.
func (s *Service) EnsureAllDailySnapshots(ctx context.Context) (int, error) {
	profiles, err := s.store.GetAllProfiles()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range profiles {
		ok, err := s.EnsureDailySnapshot(ctx, p.Username)
		if err != nil {
			return n, fmt.Errorf("snapshot for %s: %w", p.Username, err)
		}
		if ok {
			n++
		}
	}
	return n, nil
}

var errNoDrafts = errors.New("draft storage is not configured")

// SaveDraft keeps an unsaved edit of username's schedule.
func (s *Service) SaveDraft(username string, blocks []models.ScheduleBlock) error {
	if s.drafts == nil {
		return errNoDrafts
	}
	return s.drafts.Set(localstate.DraftKey(username), blocks)
}

// LoadDraft returns the unsaved edit, if any.
func (s *Service) LoadDraft(username string) ([]models.ScheduleBlock, bool) {
	if s.drafts == nil {
		return nil, false
	}
	var blocks []models.ScheduleBlock
	if !s.drafts.Get(localstate.DraftKey(username), &blocks) {
		return nil, false
	}
	return blocks, true
}

// DiscardDraft drops the unsaved edit.
func (s *Service) DiscardDraft(username string) error {
	if s.drafts == nil {
		return errNoDrafts
	}
	return s.drafts.Delete(localstate.DraftKey(username))
}
