package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/julianstephens/opsboard/internal/models"
	"github.com/julianstephens/opsboard/internal/storage"
)

const profileColumns = "username, name, role, avatar, color, pin_hash, created_at"

func (s *Store) SaveProfile(p models.Profile) error {
	_, err := s.db.Exec(`
		INSERT INTO profiles (`+profileColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			avatar = EXCLUDED.avatar,
			color = EXCLUDED.color,
			pin_hash = EXCLUDED.pin_hash`,
		p.Username, p.Name, p.Role, p.Avatar, p.Color, p.PINHash, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", p.Username, err)
	}
	return nil
}

func scanProfile(row interface{ Scan(...interface{}) error }) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.Username, &p.Name, &p.Role, &p.Avatar, &p.Color, &p.PINHash, &p.CreatedAt)
	return p, err
}

func (s *Store) GetProfile(username string) (models.Profile, error) {
	p, err := scanProfile(s.db.QueryRow("SELECT "+profileColumns+" FROM profiles WHERE username = $1", username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Profile{}, fmt.Errorf("profile %s: %w", username, storage.ErrNotFound)
		}
		return models.Profile{}, fmt.Errorf("failed to read profile %s: %w", username, err)
	}
	return p, nil
}

func (s *Store) GetAllProfiles() ([]models.Profile, error) {
	rows, err := s.db.Query("SELECT " + profileColumns + " FROM profiles ORDER BY created_at, username")
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeleteProfile(username string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM profiles WHERE username = $1", username)
	if err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", username, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile %s: %w", username, storage.ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM schedule_blocks WHERE username = $1", username); err != nil {
		return fmt.Errorf("failed to delete schedule of %s: %w", username, err)
	}
	return tx.Commit()
}
