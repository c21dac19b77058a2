package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/ports"
	"github.com/navboard/navboard/internal/core/usecases"
)

// errTypeNotFound marks a missing mission so the client can map it back.
const errTypeNotFound = "NotFound"

// MissionActivities holds the activity implementations for the mission load workflow.
type MissionActivities struct {
	Missions  ports.MissionRepository
	Waypoints *usecases.WaypointService
	Logs      *usecases.LogService
}

// SnapshotWaypoints returns the active list so it can be restored.
func (a *MissionActivities) SnapshotWaypoints(ctx context.Context) ([]domain.Waypoint, error) {
	return a.Waypoints.List(), nil
}

// FetchMission reads a stored mission. A missing mission is not retried.
func (a *MissionActivities) FetchMission(ctx context.Context, name string) (*domain.Mission, error) {
	m, err := a.Missions.Get(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("mission %s not found", name), errTypeNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get mission %s: %w", name, err)
	}
	return m, nil
}

// ApplyWaypoints replaces the active list and returns it with IDs filled in.
func (a *MissionActivities) ApplyWaypoints(ctx context.Context, wps []domain.Waypoint) ([]domain.Waypoint, error) {
	if err := a.Waypoints.Replace(ctx, wps); err != nil {
		return nil, err
	}
	return a.Waypoints.List(), nil
}

// RestoreWaypoints puts a snapshot back (saga compensation).
func (a *MissionActivities) RestoreWaypoints(ctx context.Context, wps []domain.Waypoint) error {
	if err := a.Waypoints.Replace(ctx, wps); err != nil {
		return fmt.Errorf("restore waypoints: %w", err)
	}
	a.Logs.Warnf(ctx, "Restored %d waypoints after a failed mission load", len(wps))
	return nil
}

// AnnounceMissionLoaded tells connected boards about the new list.
func (a *MissionActivities) AnnounceMissionLoaded(ctx context.Context, name string, count int) error {
	a.Logs.Infof(ctx, "Loaded mission %s (%d waypoints)", name, count)
	return nil
}
