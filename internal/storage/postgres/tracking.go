package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
)

const trackingColumns = `username, tracking_key, completed_tasks, note_kind, report, delay_reason,
	is_impossible, escalated, justified_at, report_sent, attachments, updated_at`

func (s *Store) UpsertTrackingRecord(rec models.TrackingRecord) error {
	attachments, err := storage.ToJSON(rec.Attachments)
	if err != nil {
		return err
	}
	var justified sql.NullTime
	if rec.Note.JustifiedAt != nil {
		justified = sql.NullTime{Time: *rec.Note.JustifiedAt, Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO tracking_data (`+trackingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (username, tracking_key) DO UPDATE SET
			completed_tasks = EXCLUDED.completed_tasks,
			note_kind = EXCLUDED.note_kind,
			report = EXCLUDED.report,
			delay_reason = EXCLUDED.delay_reason,
			is_impossible = EXCLUDED.is_impossible,
			escalated = EXCLUDED.escalated,
			justified_at = EXCLUDED.justified_at,
			report_sent = EXCLUDED.report_sent,
			attachments = EXCLUDED.attachments,
			updated_at = EXCLUDED.updated_at`,
		rec.Username, rec.Key, pq.Array(storage.NormalizeCompleted(rec.Completed)),
		string(rec.Note.Kind), rec.Note.Report, string(rec.Note.Reason),
		rec.Note.IsImpossible, rec.Note.Escalated, justified,
		rec.ReportSent, attachments, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save tracking record %s/%s: %w", rec.Username, rec.Key, err)
	}
	return nil
}

func scanTracking(row interface{ Scan(...interface{}) error }) (models.TrackingRecord, error) {
	var (
		rec                 models.TrackingRecord
		kind, reason, files string
		justified           sql.NullTime
	)
	if err := row.Scan(&rec.Username, &rec.Key, pq.Array(&rec.Completed), &kind, &rec.Note.Report, &reason,
		&rec.Note.IsImpossible, &rec.Note.Escalated, &justified, &rec.ReportSent, &files, &rec.UpdatedAt); err != nil {
		return models.TrackingRecord{}, err
	}
	if err := storage.FromJSON(files, &rec.Attachments); err != nil {
		return models.TrackingRecord{}, err
	}
	rec.Note.Kind = constants.NoteKind(kind)
	rec.Note.Reason = constants.DelayReason(reason)
	if justified.Valid {
		t := justified.Time
		rec.Note.JustifiedAt = &t
	}
	return rec, nil
}

func (s *Store) GetTrackingRecord(username, key string) (models.TrackingRecord, error) {
	rec, err := scanTracking(s.db.QueryRow(
		"SELECT "+trackingColumns+" FROM tracking_data WHERE username = $1 AND tracking_key = $2", username, key))
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
	list, err := s.queryTracking("SELECT "+trackingColumns+" FROM tracking_data WHERE username = $1", username)
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
