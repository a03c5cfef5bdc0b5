package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
)

func (s *Store) SaveSnapshot(snap models.ScheduleSnapshot) error {
	blocks, err := storage.ToJSON(snap.Blocks)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO schedule_snapshots (username, snapshot_date, blocks, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(username, snapshot_date) DO UPDATE SET
			blocks = excluded.blocks,
			created_at = excluded.created_at`,
		snap.Username, snap.Date, blocks, formatTime(snap.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s/%s: %w", snap.Username, snap.Date, err)
	}
	return nil
}

func scanSnapshot(row interface{ Scan(...interface{}) error }) (models.ScheduleSnapshot, error) {
	var snap models.ScheduleSnapshot
	var blocks, created string
	if err := row.Scan(&snap.Username, &snap.Date, &blocks, &created); err != nil {
		return models.ScheduleSnapshot{}, err
	}
	if err := storage.FromJSON(blocks, &snap.Blocks); err != nil {
		return models.ScheduleSnapshot{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return models.ScheduleSnapshot{}, err
	}
	snap.CreatedAt = t
	return snap, nil
}

func (s *Store) GetSnapshot(username, date string) (models.ScheduleSnapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRow(
		"SELECT username, snapshot_date, blocks, created_at FROM schedule_snapshots WHERE username = ? AND snapshot_date = ?",
		username, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ScheduleSnapshot{}, fmt.Errorf("snapshot %s/%s: %w", username, date, storage.ErrNotFound)
		}
		return models.ScheduleSnapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return snap, nil
}

func (s *Store) GetSnapshots(username string) ([]models.ScheduleSnapshot, error) {
	rows, err := s.db.Query(
		"SELECT username, snapshot_date, blocks, created_at FROM schedule_snapshots WHERE username = ? ORDER BY snapshot_date",
		username)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.ScheduleSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
