package sqlite

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
)

const blockColumns = "id, username, hour, label, priority, category, tasks, position"

func scanBlock(row interface{ Scan(...interface{}) error }) (models.ScheduleBlock, error) {
	var b models.ScheduleBlock
	var priority, tasks string
	if err := row.Scan(&b.ID, &b.Username, &b.Hour, &b.Label, &priority, &b.Category, &tasks, &b.Position); err != nil {
		return models.ScheduleBlock{}, err
	}
	b.Priority = constants.Priority(priority)
	if err := storage.FromJSON(tasks, &b.Tasks); err != nil {
		return models.ScheduleBlock{}, fmt.Errorf("block %s: %w", b.ID, err)
	}
	return b, nil
}

func (s *Store) queryBlocks(query string, args ...interface{}) ([]models.ScheduleBlock, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule: %w", err)
	}
	defer rows.Close()

	var out []models.ScheduleBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetSchedule(username string) ([]models.ScheduleBlock, error) {
	return s.queryBlocks("SELECT "+blockColumns+" FROM schedule_blocks WHERE username = ? ORDER BY position", username)
}

func (s *Store) GetAllSchedules() (map[string][]models.ScheduleBlock, error) {
	blocks, err := s.queryBlocks("SELECT " + blockColumns + " FROM schedule_blocks")
	if err != nil {
		return nil, err
	}
	return storage.GroupSchedules(blocks), nil
}

func (s *Store) ReplaceSchedule(username string, blocks []models.ScheduleBlock) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM schedule_blocks WHERE username = ?", username); err != nil {
		return fmt.Errorf("failed to clear schedule of %s: %w", username, err)
	}

	stmt, err := tx.Prepare("INSERT INTO schedule_blocks (" + blockColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, b := range blocks {
		tasks, err := storage.ToJSON(b.Tasks)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(b.ID, username, b.Hour, b.Label, string(b.Priority), b.Category, tasks, i); err != nil {
			return fmt.Errorf("failed to insert block %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}
