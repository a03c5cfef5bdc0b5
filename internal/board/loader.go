package board

import (
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/opsboard/internal/aggregate"
	"github.com/julianstephens/opsboard/internal/logger"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/utils"
)

// Reader is the full-table read surface of storage.
type Reader interface {
	GetAllProfiles() ([]models.Profile, error)
	GetAllSchedules() (map[string][]models.ScheduleBlock, error)
	GetAllTrackingRecords() ([]models.TrackingRecord, error)
}

// Snapshot is one consistent-enough read of every table the board needs.
type Snapshot struct {
	Profiles  []models.Profile
	Schedules map[string][]models.ScheduleBlock
	// Tracking maps username to tracking key to record.
	Tracking map[string]map[string]models.TrackingRecord
	LoadedAt time.Time
}

// Profile looks up username.
func (s *Snapshot) Profile(username string) (models.Profile, bool) {
	if s == nil {
		return models.Profile{}, false
	}
	for _, p := range s.Profiles {
		if p.Username == username {
			return p, true
		}
	}
	return models.Profile{}, false
}

// Day builds username's board row.
func (s *Snapshot) Day(username, date string, nowHour int, online func(string) bool) (OperatorDay, bool) {
	p, ok := s.Profile(username)
	if !ok {
		return OperatorDay{}, false
	}
	return BuildDay(p, s.Schedules[username], s.Tracking[username], date, nowHour, isOnline(online, username)), true
}

// Days builds every operator's board row in profile order.
func (s *Snapshot) Days(date string, nowHour int, online func(string) bool) []OperatorDay {
	if s == nil {
		return nil
	}
	days := make([]OperatorDay, 0, len(s.Profiles))
	for _, p := range s.Profiles {
		days = append(days, BuildDay(p, s.Schedules[p.Username], s.Tracking[p.Username], date, nowHour, isOnline(online, p.Username)))
	}
	return days
}

// Weekly returns username's completion series ending at today.
func (s *Snapshot) Weekly(username, today string, days int) ([]aggregate.DayStat, error) {
	if _, ok := s.Profile(username); !ok {
		return nil, fmt.Errorf("unknown operator %q", username)
	}
	return aggregate.WeeklySeries(s.Schedules[username], s.Tracking[username], today, days)
}

// TeamWeekly sums every operator's series.
func (s *Snapshot) TeamWeekly(today string, days int) ([]aggregate.DayStat, error) {
	var all [][]aggregate.DayStat
	for _, p := range s.Profiles {
		series, err := aggregate.WeeklySeries(s.Schedules[p.Username], s.Tracking[p.Username], today, days)
		if err != nil {
			return nil, err
		}
		all = append(all, series)
	}
	if len(all) == 0 {
		return aggregate.WeeklySeries(nil, nil, today, days)
	}
	return aggregate.Combine(all...), nil
}

func isOnline(online func(string) bool, username string) bool {
	return online != nil && online(username)
}

// Loader performs the full-table reads and remembers the last good result.
type Loader struct {
	store Reader
	now   utils.Clock

	mu   sync.RWMutex
	last *Snapshot
}

func NewLoader(store Reader, now utils.Clock) *Loader {
	if now == nil {
		now = utils.SystemClock
	}
	return &Loader{store: store, now: now}
}

// Load re-reads every table. On failure it logs, keeps the previous snapshot
// and returns it together with the error; the snapshot is nil only if no
// load has ever succeeded.
func (l *Loader) Load() (*Snapshot, error) {
	snap, err := l.read()
	if err != nil {
		logger.Warn("Board refresh failed, keeping last good state", "error", err)
		return l.Last(), err
	}
	l.mu.Lock()
	l.last = snap
	l.mu.Unlock()
	return snap, nil
}

// Last returns the last good snapshot.
func (l *Loader) Last() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

func (l *Loader) read() (*Snapshot, error) {
	profiles, err := l.store.GetAllProfiles()
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	schedules, err := l.store.GetAllSchedules()
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	records, err := l.store.GetAllTrackingRecords()
	if err != nil {
		return nil, fmt.Errorf("failed to load tracking data: %w", err)
	}

	tracking := make(map[string]map[string]models.TrackingRecord)
	for _, rec := range records {
		m, ok := tracking[rec.Username]
		if !ok {
			m = make(map[string]models.TrackingRecord)
			tracking[rec.Username] = m
		}
		m[rec.Key] = rec
	}
	return &Snapshot{Profiles: profiles, Schedules: schedules, Tracking: tracking, LoadedAt: l.now()}, nil
}
