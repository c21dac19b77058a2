// Package board implements the navigation control board session: the
// waypoint sequence, its synchronisation with the backend, the keepout
// overlay, the interaction mode and the console, all owned by a single
// event-loop goroutine.
package board

import (
	"github.com/google/uuid"

	"github.com/navboard/navboard/internal/core/domain"
)

// Sequence is the ordered list of user waypoints plus the robot pose.
// The rendered view always starts with the robot position; the pose is
// held apart from the list so no list operation can touch it.
//
// Sequence is not safe for concurrent use. Observers registered with
// OnChange run synchronously after every mutation.
type Sequence struct {
	robot     domain.RobotPose
	waypoints []domain.Waypoint
	observers []func()
	newID     func() string
}

// NewSequence returns a sequence containing only the robot.
func NewSequence(robot domain.RobotPose) *Sequence {
	return &Sequence{robot: robot, newID: uuid.NewString}
}

// OnChange registers fn to be called after every mutation.
func (s *Sequence) OnChange(fn func()) {
	s.observers = append(s.observers, fn)
}

func (s *Sequence) changed() {
	for _, fn := range s.observers {
		fn()
	}
}

// Add appends p as a new waypoint. Duplicate coordinates are allowed.
func (s *Sequence) Add(p domain.GeoPoint) domain.Waypoint {
	wp := domain.Waypoint{ID: s.newID(), GeoPoint: p}
	s.waypoints = append(s.waypoints, wp)
	s.changed()
	return wp
}

// Remove deletes the first waypoint exactly equal to p.
func (s *Sequence) Remove(p domain.GeoPoint) bool {
	wp, ok := s.Lookup(p)
	if !ok {
		return false
	}
	_, ok = s.RemoveByID(wp.ID)
	return ok
}

// Update moves the first waypoint exactly equal to old to p, keeping its
// position in the list.
func (s *Sequence) Update(old, p domain.GeoPoint) bool {
	wp, ok := s.Lookup(old)
	if !ok {
		return false
	}
	_, ok = s.UpdateByID(wp.ID, p)
	return ok
}

// RemoveByID deletes the waypoint with the given id.
func (s *Sequence) RemoveByID(id string) (domain.Waypoint, bool) {
	i := s.index(id)
	if i < 0 {
		return domain.Waypoint{}, false
	}
	wp := s.waypoints[i]
	s.waypoints = append(s.waypoints[:i], s.waypoints[i+1:]...)
	s.changed()
	return wp, true
}

// UpdateByID moves the waypoint with the given id and returns its previous
// position.
func (s *Sequence) UpdateByID(id string, p domain.GeoPoint) (domain.GeoPoint, bool) {
	i := s.index(id)
	if i < 0 {
		return domain.GeoPoint{}, false
	}
	old := s.waypoints[i].GeoPoint
	s.waypoints[i].GeoPoint = p
	s.changed()
	return old, true
}

// Clear drops every user waypoint; only the robot remains.
func (s *Sequence) Clear() {
	s.waypoints = nil
	s.changed()
}

// Replace swaps the whole user list, e.g. after a reconcile or mission load.
// Waypoints without an id get a fresh one.
func (s *Sequence) Replace(wps []domain.Waypoint) {
	next := make([]domain.Waypoint, len(wps))
	for i, wp := range wps {
		if wp.ID == "" {
			wp.ID = s.newID()
		}
		next[i] = wp
	}
	s.waypoints = next
	s.changed()
}

// AdvanceRobot shifts the robot pose by delta.
func (s *Sequence) AdvanceRobot(delta domain.GeoPoint) {
	s.robot.GeoPoint = s.robot.Add(delta)
	s.changed()
}

// SetRobot overwrites the robot pose with a telemetry report.
func (s *Sequence) SetRobot(pose domain.RobotPose) {
	s.robot = pose
	s.changed()
}

// Lookup returns the first waypoint exactly equal to p.
func (s *Sequence) Lookup(p domain.GeoPoint) (domain.Waypoint, bool) {
	for _, wp := range s.waypoints {
		if wp.GeoPoint == p {
			return wp, true
		}
	}
	return domain.Waypoint{}, false
}

// Get returns the waypoint with the given id.
func (s *Sequence) Get(id string) (domain.Waypoint, bool) {
	i := s.index(id)
	if i < 0 {
		return domain.Waypoint{}, false
	}
	return s.waypoints[i], true
}

func (s *Sequence) index(id string) int {
	for i, wp := range s.waypoints {
		if wp.ID == id {
			return i
		}
	}
	return -1
}

// Robot returns the current robot pose.
func (s *Sequence) Robot() domain.RobotPose { return s.robot }

// Waypoints returns a copy of the user waypoints, robot excluded.
func (s *Sequence) Waypoints() []domain.Waypoint {
	out := make([]domain.Waypoint, len(s.waypoints))
	copy(out, s.waypoints)
	return out
}

// Points returns the rendered view: the robot position followed by every
// user waypoint in order.
func (s *Sequence) Points() []domain.GeoPoint {
	out := make([]domain.GeoPoint, 0, len(s.waypoints)+1)
	out = append(out, s.robot.GeoPoint)
	for _, wp := range s.waypoints {
		out = append(out, wp.GeoPoint)
	}
	return out
}

// Len returns the length of the rendered view, robot included.
func (s *Sequence) Len() int { return len(s.waypoints) + 1 }
