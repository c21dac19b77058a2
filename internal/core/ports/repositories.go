package ports

import (
	"context"

	"github.com/navboard/navboard/internal/core/domain"
)

// WaypointRepository persists the active waypoint list.
type WaypointRepository interface {
	Load(ctx context.Context) ([]domain.Waypoint, error)
	Save(ctx context.Context, wps []domain.Waypoint) error
}

// MissionRepository persists named missions.
type MissionRepository interface {
	Save(ctx context.Context, m *domain.Mission) error
	// Get returns domain.ErrNotFound when no mission has that name.
	Get(ctx context.Context, name string) (*domain.Mission, error)
	List(ctx context.Context) ([]domain.Mission, error)
}
