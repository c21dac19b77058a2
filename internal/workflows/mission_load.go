package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/navboard/navboard/internal/core/domain"
)

// MissionLoadInput is the input for the mission load workflow.
type MissionLoadInput struct {
	Name string
}

// MissionLoadWorkflow replaces the active waypoints with a stored mission.
// If applying the mission fails, the previous list is put back (saga
// compensation).
func MissionLoadWorkflow(ctx workflow.Context, input MissionLoadInput) (*domain.Mission, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting mission load", "mission", input.Name)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			// Replace is not idempotent with respect to new IDs.
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Snapshot the current list
	var previous []domain.Waypoint
	if err := workflow.ExecuteActivity(ctx, "SnapshotWaypoints").Get(ctx, &previous); err != nil {
		return nil, err
	}

	// Step 2: Read the mission
	var mission domain.Mission
	if err := workflow.ExecuteActivity(ctx, "FetchMission", input.Name).Get(ctx, &mission); err != nil {
		return nil, err
	}

	// Step 3: Apply it
	var applied []domain.Waypoint
	if err := workflow.ExecuteActivity(ctx, "ApplyWaypoints", mission.Waypoints).Get(ctx, &applied); err != nil {
		logger.Warn("apply failed, restoring previous waypoints", "error", err)
		_ = workflow.ExecuteActivity(ctx, "RestoreWaypoints", previous).Get(ctx, nil)
		return nil, err
	}
	mission.Waypoints = applied

	// Step 4: Announce
	_ = workflow.ExecuteActivity(ctx, "AnnounceMissionLoaded", mission.Name, len(applied)).Get(ctx, nil)

	logger.Info("Mission loaded", "mission", mission.Name, "waypoints", len(applied))
	return &mission, nil
}
