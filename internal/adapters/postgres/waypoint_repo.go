package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/navboard/navboard/internal/core/domain"
)

// WaypointRepo implements ports.WaypointRepository. The active list is
// stored one row per waypoint, ordered by position.
type WaypointRepo struct {
	db *DB
}

func NewWaypointRepo(db *DB) *WaypointRepo {
	return &WaypointRepo{db: db}
}

func (r *WaypointRepo) Load(ctx context.Context) ([]domain.Waypoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, lat, lng FROM active_waypoints ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wps []domain.Waypoint
	for rows.Next() {
		var wp domain.Waypoint
		if err := rows.Scan(&wp.ID, &wp.Lat, &wp.Lng); err != nil {
			return nil, err
		}
		wps = append(wps, wp)
	}
	return wps, rows.Err()
}

// Save replaces the stored list in one transaction using COPY.
func (r *WaypointRepo) Save(ctx context.Context, wps []domain.Waypoint) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM active_waypoints`); err != nil {
		return fmt.Errorf("clear waypoints: %w", err)
	}

	if len(wps) > 0 {
		rows := make([][]any, len(wps))
		for i, wp := range wps {
			rows[i] = []any{i, wp.ID, wp.Lat, wp.Lng}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"active_waypoints"},
			[]string{"position", "id", "lat", "lng"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("copy waypoints: %w", err)
		}
	}

	return tx.Commit(ctx)
}
