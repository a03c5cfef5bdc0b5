package postgres

import (
	"fmt"

	"github.com/julianstephens/opsboard/internal/constants"
	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
)

func (s *Store) AppendActivity(e models.ActivityLogEntry) error {
	_, err := s.db.Exec("INSERT INTO activity_logs (id, actor, action, detail, timestamp) VALUES ($1, $2, $3, $4, $5)",
		e.ID, e.Actor, string(e.Action), e.Detail, e.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

func (s *Store) GetRecentActivity(limit int) ([]models.ActivityLogEntry, error) {
	rows, err := s.db.Query(
		"SELECT id, actor, action, detail, timestamp FROM activity_logs ORDER BY timestamp DESC, id DESC LIMIT $1",
		storage.ClampActivityLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	defer rows.Close()

	var out []models.ActivityLogEntry
	for rows.Next() {
		var e models.ActivityLogEntry
		var action string
		if err := rows.Scan(&e.ID, &e.Actor, &action, &e.Detail, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Action = constants.ActivityAction(action)
		out = append(out, e)
	}
	return out, rows.Err()
}
