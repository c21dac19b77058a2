package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/ports"
)

// ApplyStatus describes what the backend did with a submitted command.
type ApplyStatus = domain.CommandStatus

const (
	StatusApplied   = domain.CommandApplied
	StatusQueued    = domain.CommandQueued
	StatusDuplicate = domain.CommandDuplicate
)

// ApplyResult reports the outcome of WaypointService.Apply.
type ApplyResult struct {
	Status ApplyStatus `json:"status"`
	// Applied counts every command applied by this call, including
	// buffered successors released by it.
	Applied int `json:"applied"`
	// AppliedSeq is the session's highest applied seq once the call is done.
	AppliedSeq uint64 `json:"applied_seq"`
}

// WaypointService owns the authoritative waypoint list.
type WaypointService struct {
	mu        sync.Mutex
	repo      ports.WaypointRepository
	logs      *LogService
	commands  *CommandLog
	waypoints []domain.Waypoint
	newID     func() string
}

// NewWaypointService creates a new WaypointService.
func NewWaypointService(repo ports.WaypointRepository, logs *LogService, commands *CommandLog) *WaypointService {
	if commands == nil {
		commands = NewCommandLog(0, 0)
	}
	return &WaypointService{
		repo:     repo,
		logs:     logs,
		commands: commands,
		newID:    uuid.NewString,
	}
}

// Restore loads the persisted list, replacing the in-memory one.
func (s *WaypointService) Restore(ctx context.Context) error {
	wps, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load waypoints: %w", err)
	}
	s.mu.Lock()
	s.waypoints = wps
	s.mu.Unlock()
	return nil
}

// Apply admits cmd to the command log and applies whatever becomes ready.
// The returned error belongs to cmd itself; failures of released buffered
// commands are published to the console instead.
func (s *WaypointService) Apply(ctx context.Context, cmd domain.Command) (res ApplyResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { res.AppliedSeq = s.commands.Applied(cmd.Session) }()

	admission, ready, err := s.commands.Admit(cmd)
	if err != nil {
		return ApplyResult{Status: StatusQueued}, err
	}
	switch admission {
	case AdmitBuffered:
		return ApplyResult{Status: StatusQueued}, nil
	case AdmitDuplicate:
		return ApplyResult{Status: StatusDuplicate}, nil
	}

	var first error
	for i, c := range ready {
		err := s.apply(c)
		if err == nil {
			s.logs.Infof(ctx, "%s", describe(c))
			continue
		}
		if i == 0 {
			first = err
		} else {
			s.logs.Errorf(ctx, "queued %s command #%d failed: %v", c.Op, c.Seq, err)
		}
	}

	if err := s.repo.Save(ctx, s.snapshot()); err != nil {
		return ApplyResult{Status: StatusApplied, Applied: len(ready)}, fmt.Errorf("save waypoints: %w", err)
	}
	return ApplyResult{Status: StatusApplied, Applied: len(ready)}, first
}

func (s *WaypointService) apply(c domain.Command) error {
	switch c.Op {
	case domain.OpAdd:
		id := c.ID
		if id == "" {
			id = s.newID()
		}
		s.waypoints = append(s.waypoints, domain.Waypoint{ID: id, GeoPoint: c.Point})
	case domain.OpRemove:
		i := s.find(c.ID, c.Point)
		if i < 0 {
			return fmt.Errorf("waypoint %s: %w", c.Point, domain.ErrNotFound)
		}
		s.waypoints = append(s.waypoints[:i], s.waypoints[i+1:]...)
	case domain.OpUpdate:
		i := s.find(c.ID, c.Old)
		if i < 0 {
			return fmt.Errorf("waypoint %s: %w", c.Old, domain.ErrNotFound)
		}
		s.waypoints[i].GeoPoint = c.Point
	case domain.OpClear:
		s.waypoints = nil
	default:
		return fmt.Errorf("unknown op %q", c.Op)
	}
	return nil
}

// find locates by ID when one is given, otherwise by first exact coordinate match.
func (s *WaypointService) find(id string, p domain.GeoPoint) int {
	for i, wp := range s.waypoints {
		if id != "" {
			if wp.ID == id {
				return i
			}
			continue
		}
		if wp.GeoPoint == p {
			return i
		}
	}
	return -1
}

// List returns a copy of the active waypoints.
func (s *WaypointService) List() []domain.Waypoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Replace swaps the whole active list, e.g. when a mission is loaded.
func (s *WaypointService) Replace(ctx context.Context, wps []domain.Waypoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.Waypoint, len(wps))
	for i, wp := range wps {
		if wp.ID == "" {
			wp.ID = s.newID()
		}
		next[i] = wp
	}
	s.waypoints = next

	if err := s.repo.Save(ctx, s.snapshot()); err != nil {
		return fmt.Errorf("save waypoints: %w", err)
	}
	return nil
}

// AppliedSeq returns the last seq applied for a board session.
func (s *WaypointService) AppliedSeq(session string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commands.Applied(session)
}

func (s *WaypointService) snapshot() []domain.Waypoint {
	out := make([]domain.Waypoint, len(s.waypoints))
	copy(out, s.waypoints)
	return out
}

func describe(c domain.Command) string {
	switch c.Op {
	case domain.OpAdd:
		return "Added waypoint: " + c.Point.String()
	case domain.OpRemove:
		return "Deleted waypoint: " + c.Point.String()
	case domain.OpUpdate:
		return "Updated waypoint: " + c.Old.String() + " -> " + c.Point.String()
	case domain.OpClear:
		return "Cleared waypoints"
	}
	return string(c.Op)
}
