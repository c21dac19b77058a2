package workflows

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"

	"github.com/navboard/navboard/internal/core/domain"
)

// NewWorker registers the mission workflow and its activities on taskQueue.
func NewWorker(c client.Client, taskQueue string, acts *MissionActivities) worker.Worker {
	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflow(MissionLoadWorkflow)
	w.RegisterActivity(acts)
	return w
}

// Runner implements ports.MissionLoader by running MissionLoadWorkflow and
// waiting for its result.
type Runner struct {
	client    client.Client
	taskQueue string
}

func NewRunner(c client.Client, taskQueue string) *Runner {
	return &Runner{client: c, taskQueue: taskQueue}
}

func (r *Runner) LoadMission(ctx context.Context, name string) (*domain.Mission, error) {
	run, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "mission-load-" + name + "-" + uuid.NewString(),
		TaskQueue: r.taskQueue,
	}, MissionLoadWorkflow, MissionLoadInput{Name: name})
	if err != nil {
		return nil, fmt.Errorf("start mission load: %w", err)
	}

	var m domain.Mission
	if err := run.Get(ctx, &m); err != nil {
		return nil, mapWorkflowError(name, err)
	}
	return &m, nil
}

func mapWorkflowError(name string, err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == errTypeNotFound {
		return fmt.Errorf("mission %s: %w", name, domain.ErrNotFound)
	}
	return fmt.Errorf("mission load %s: %w", name, err)
}
