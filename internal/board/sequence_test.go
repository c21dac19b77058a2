package board

import (
	"testing"

	"github.com/navboard/navboard/internal/core/domain"
)

func assertRobotFirst(t *testing.T, s *Sequence, want domain.GeoPoint) {
	t.Helper()
	pts := s.Points()
	if len(pts) == 0 || pts[0] != want {
		t.Fatalf("expected robot %v at index 0, got %v", want, pts)
	}
}

func TestSequence_RobotStaysFirst(t *testing.T) {
	s := NewSequence(robotStart)
	robot := robotStart.GeoPoint
	delta := domain.GeoPoint{Lat: 0.0001, Lng: 0.0001}

	ops := []func(){
		func() { s.Add(ptA) },
		func() { s.AdvanceRobot(delta); robot = robot.Add(delta) },
		func() { s.Add(ptB) },
		func() { s.Update(ptA, ptB) },
		func() { s.Remove(robot) },
		func() { s.AdvanceRobot(delta); robot = robot.Add(delta) },
		func() { s.Remove(ptB) },
		func() { s.Update(robot, ptA) },
	}
	for _, op := range ops {
		op()
		assertRobotFirst(t, s, robot)
	}
}

func TestSequence_Scenario(t *testing.T) {
	s := NewSequence(robotStart)
	r := robotStart.GeoPoint

	s.Add(ptA)
	s.Add(ptB)
	if got := s.Points(); len(got) != 3 || got[1] != ptA || got[2] != ptB {
		t.Fatalf("expected [R A B], got %v", got)
	}
	if !s.Remove(ptA) {
		t.Fatal("expected A removed")
	}
	if got := s.Points(); len(got) != 2 || got[0] != r || got[1] != ptB {
		t.Fatalf("expected [R B], got %v", got)
	}
	s.Clear()
	if got := s.Points(); len(got) != 1 || got[0] != r {
		t.Fatalf("expected [R], got %v", got)
	}
}

func TestSequence_ClearAlwaysLeavesRobot(t *testing.T) {
	for n := 0; n < 5; n++ {
		s := NewSequence(robotStart)
		for i := 0; i < n; i++ {
			s.Add(domain.GeoPoint{Lat: float64(i)})
		}
		s.Clear()
		if s.Len() != 1 {
			t.Errorf("n=%d: expected length 1, got %d", n, s.Len())
		}
		assertRobotFirst(t, s, robotStart.GeoPoint)
	}
}

func TestSequence_RemoveAbsent(t *testing.T) {
	s := NewSequence(robotStart)
	s.Add(ptA)
	before := s.Points()

	if s.Remove(ptB) {
		t.Error("expected false for absent point")
	}
	after := s.Points()
	if len(after) != len(before) || after[1] != before[1] {
		t.Errorf("sequence changed: %v -> %v", before, after)
	}
}

func TestSequence_UpdateFirstMatch(t *testing.T) {
	s := NewSequence(robotStart)
	s.Add(ptA)
	s.Add(ptB)
	s.Add(ptA)

	if s.Update(domain.GeoPoint{Lat: 1}, ptB) {
		t.Error("expected false for absent old point")
	}
	if !s.Update(ptA, domain.GeoPoint{Lat: 1, Lng: 2}) {
		t.Fatal("expected update to succeed")
	}
	got := s.Points()
	want := []domain.GeoPoint{robotStart.GeoPoint, {Lat: 1, Lng: 2}, ptB, ptA}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestSequence_DuplicatesHaveDistinctIDs(t *testing.T) {
	s := NewSequence(robotStart)
	first := s.Add(ptA)
	second := s.Add(ptA)
	if first.ID == second.ID {
		t.Fatal("expected distinct ids for duplicate coordinates")
	}

	if _, ok := s.RemoveByID(second.ID); !ok {
		t.Fatal("expected removal by id")
	}
	wps := s.Waypoints()
	if len(wps) != 1 || wps[0].ID != first.ID {
		t.Errorf("expected first waypoint to survive, got %v", wps)
	}
}

func TestSequence_UpdateByIDReturnsOld(t *testing.T) {
	s := NewSequence(robotStart)
	wp := s.Add(ptA)
	old, ok := s.UpdateByID(wp.ID, ptB)
	if !ok || old != ptA {
		t.Fatalf("expected old %v, got %v %v", ptA, old, ok)
	}
	if got, _ := s.Get(wp.ID); got.GeoPoint != ptB {
		t.Errorf("expected moved waypoint, got %v", got)
	}
	if _, ok := s.UpdateByID("nope", ptA); ok {
		t.Error("expected unknown id to fail")
	}
}

func TestSequence_ObserversRunSynchronously(t *testing.T) {
	s := NewSequence(robotStart)
	var seen []int
	s.OnChange(func() { seen = append(seen, s.Len()) })

	s.Add(ptA)
	s.Add(ptB)
	s.Remove(ptA)
	s.Clear()

	want := []int{2, 3, 2, 1}
	if len(seen) != len(want) {
		t.Fatalf("expected %d notifications, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d: expected len %d, got %d", i, want[i], seen[i])
		}
	}
}

func TestSequence_ReplaceAssignsIDs(t *testing.T) {
	s := NewSequence(robotStart)
	s.Replace([]domain.Waypoint{{GeoPoint: ptA}, {ID: "kept", GeoPoint: ptB}})
	wps := s.Waypoints()
	if wps[0].ID == "" || wps[1].ID != "kept" {
		t.Errorf("unexpected ids %q %q", wps[0].ID, wps[1].ID)
	}
	assertRobotFirst(t, s, robotStart.GeoPoint)
}
