// Package storage defines the persistence contract shared by the sqlite and
// postgres backends. Reads are full-table; writes are last-write-wins upserts
// keyed by natural keys.
package storage

import (
	"errors"

	"github.com/julianstephens/opsboard/internal/models"
)

// ErrNotFound is returned when a keyed row does not exist.
var ErrNotFound = errors.New("not found")

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Profiles
	SaveProfile(models.Profile) error
	GetProfile(username string) (models.Profile, error)
	GetAllProfiles() ([]models.Profile, error)
	// DeleteProfile removes the profile and its schedule. Tracking history stays.
	DeleteProfile(username string) error

	// Schedules
	GetSchedule(username string) ([]models.ScheduleBlock, error)
	GetAllSchedules() (map[string][]models.ScheduleBlock, error)
	// ReplaceSchedule swaps the operator's blocks in one transaction. Positions
	// are rewritten from slice order.
	ReplaceSchedule(username string, blocks []models.ScheduleBlock) error

	// Snapshots
	SaveSnapshot(models.ScheduleSnapshot) error
	GetSnapshot(username, date string) (models.ScheduleSnapshot, error)
	GetSnapshots(username string) ([]models.ScheduleSnapshot, error)

	// Tracking
	UpsertTrackingRecord(models.TrackingRecord) error
	GetTrackingRecord(username, key string) (models.TrackingRecord, error)
	// GetTrackingRecords returns the operator's records keyed by tracking key.
	GetTrackingRecords(username string) (map[string]models.TrackingRecord, error)
	GetAllTrackingRecords() ([]models.TrackingRecord, error)

	// Activity
	AppendActivity(models.ActivityLogEntry) error
	// GetRecentActivity returns up to limit entries, newest first.
	GetRecentActivity(limit int) ([]models.ActivityLogEntry, error)

	// Utils
	GetConfigPath() string
}
