package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
)

const trackingColumns = `username, tracking_key, completed_tasks, note_kind, report, delay_reason,
	is_impossible, escalated, justified_at, report_sent, attachments, updated_at`

func (s *Store) UpsertTrackingRecord(rec models.TrackingRecord) error {
	completed, err := storage.ToJSON(storage.NormalizeCompleted(rec.Completed))
	if err != nil {
		return err
	}
	attachments, err := storage.ToJSON(rec.Attachments)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO tracking_data (`+trackingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username, tracking_key) DO UPDATE SET
			completed_tasks = excluded.completed_tasks,
			note_kind = excluded.note_kind,
			report = excluded.report,
			delay_reason = excluded.delay_reason,
			is_impossible = excluded.is_impossible,
			escalated = excluded.escalated,
			justified_at = excluded.justified_at,
			report_sent = excluded.report_sent,
			attachments = excluded.attachments,
			updated_at = excluded.updated_at`,
		rec.Username, rec.Key, completed,
		string(rec.Note.Kind), rec.Note.Report, string(rec.Note.Reason),
		boolInt(rec.Note.IsImpossible), boolInt(rec.Note.Escalated), nullTime(rec.Note.JustifiedAt),
		boolInt(rec.ReportSent), attachments, formatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save tracking record %s/%s: %w", rec.Username, rec.Key, err)
	}
	return nil
}

func scanTracking(row interface{ Scan(...interface{}) error }) (models.TrackingRecord, error) {
	var (
		rec                                  models.TrackingRecord
		completed, kind, reason, attachments string
		updated                              string
		justified                            sql.NullString
		impossible, escalated, sent          int
	)
	if err := row.Scan(&rec.Username, &rec.Key, &completed, &kind, &rec.Note.Report, &reason,
		&impossible, &escalated, &justified, &sent, &attachments, &updated); err != nil {
		return models.TrackingRecord{}, err
	}

	if err := storage.FromJSON(completed, &rec.Completed); err != nil {
		return models.TrackingRecord{}, err
	}
	if err := storage.FromJSON(attachments, &rec.Attachments); err != nil {
		return models.TrackingRecord{}, err
	}
	rec.Note.Kind = constants.NoteKind(kind)
	rec.Note.Reason = constants.DelayReason(reason)
	rec.Note.IsImpossible = impossible != 0
	rec.Note.Escalated = escalated != 0
	rec.ReportSent = sent != 0
	if justified.Valid {
		t, err := parseTime(justified.String)
		if err != nil {
			return models.TrackingRecord{}, err
		}
		rec.Note.JustifiedAt = &t
	}
	t, err := parseTime(updated)
	if err != nil {
		return models.TrackingRecord{}, err
	}
	rec.UpdatedAt = t
	return rec, nil
}

func (s *Store) GetTrackingRecord(username, key string) (models.TrackingRecord, error) {
	rec, err := scanTracking(s.db.QueryRow(
		"SELECT "+trackingColumns+" FROM tracking_data WHERE username = ? AND tracking_key = ?", username, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TrackingRecord{}, fmt.Errorf("tracking record %s/%s: %w", username, key, storage.ErrNotFound)
		}
		return models.TrackingRecord{}, fmt.Errorf("failed to read tracking record: %w", err)
	}
	return rec, nil
}

func (s *Store) queryTracking(query string, args ...interface{}) ([]models.TrackingRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracking data: %w", err)
	}
	defer rows.Close()

	var out []models.TrackingRecord
	for rows.Next() {
		rec, err := scanTracking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) GetTrackingRecords(username string) (map[string]models.TrackingRecord, error) {
	list, err := s.queryTracking("SELECT "+trackingColumns+" FROM tracking_data WHERE username = ?", username)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.TrackingRecord, len(list))
	for _, rec := range list {
		out[rec.Key] = rec
	}
	return out, nil
}

func (s *Store) GetAllTrackingRecords() ([]models.TrackingRecord, error) {
	return s.queryTracking("SELECT " + trackingColumns + " FROM tracking_data ORDER BY username, tracking_key")
}
