package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/navboard/navboard/internal/core/domain"
)

// MissionRepo implements ports.MissionRepository with the waypoint list
// held in a JSONB column.
type MissionRepo struct {
	db *DB
}

func NewMissionRepo(db *DB) *MissionRepo {
	return &MissionRepo{db: db}
}

func (r *MissionRepo) Save(ctx context.Context, m *domain.Mission) error {
	wps, err := json.Marshal(m.Waypoints)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO missions (name, waypoints, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET waypoints = EXCLUDED.waypoints, saved_at = EXCLUDED.saved_at
	`, m.Name, wps, m.SavedAt)
	return err
}

func (r *MissionRepo) Get(ctx context.Context, name string) (*domain.Mission, error) {
	m := &domain.Mission{}
	var wps []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT name, waypoints, saved_at FROM missions WHERE name = $1
	`, name).Scan(&m.Name, &wps, &m.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("mission %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(wps, &m.Waypoints); err != nil {
		return nil, fmt.Errorf("decode mission %s: %w", name, err)
	}
	return m, nil
}

func (r *MissionRepo) List(ctx context.Context) ([]domain.Mission, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name, waypoints, saved_at FROM missions ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missions []domain.Mission
	for rows.Next() {
		var m domain.Mission
		var wps []byte
		if err := rows.Scan(&m.Name, &wps, &m.SavedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(wps, &m.Waypoints); err != nil {
			return nil, fmt.Errorf("decode mission %s: %w", m.Name, err)
		}
		missions = append(missions, m)
	}
	return missions, rows.Err()
}
