package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/navboard/navboard/internal/board"
	"github.com/navboard/navboard/internal/core/domain"
)

type fakeBackend struct {
	mu       sync.Mutex
	commands []domain.Command
}

func (f *fakeBackend) Send(ctx context.Context, cmd domain.Command) (domain.CommandAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return domain.CommandAck{Status: domain.CommandApplied, Applied: cmd.Seq}, nil
}

func (f *fakeBackend) Waypoints(ctx context.Context) ([]domain.Waypoint, error) {
	return nil, nil
}

func (f *fakeBackend) SaveMission(ctx context.Context, name string) (string, error) {
	return "Saved Mission: " + name, nil
}

func (f *fakeBackend) LoadMission(ctx context.Context, name string) (*domain.Mission, error) {
	return nil, errors.New("mission not found")
}

func (f *fakeBackend) ExportWaypoints(ctx context.Context, name string) (string, error) {
	return "Exported waypoints", nil
}

func (f *fakeBackend) KeepoutZones(ctx context.Context) ([]byte, error) {
	return []byte(`{"type":"FeatureCollection","features":[]}`), nil
}

func (f *fakeBackend) ops() []domain.Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Op, len(f.commands))
	for i, c := range f.commands {
		out[i] = c.Op
	}
	return out
}

func newRepl(t *testing.T) (*repl, *fakeBackend, *bytes.Buffer) {
	t.Helper()
	fb := &fakeBackend{}
	b := board.New(fb, board.Config{RequestTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	t.Cleanup(cancel)

	var out bytes.Buffer
	return &repl{board: b, out: &out, robotStep: domain.GeoPoint{Lat: 0.001}}, fb, &out
}

func run(t *testing.T, r *repl, lines ...string) {
	t.Helper()
	for _, l := range lines {
		if _, err := r.exec(l); err != nil {
			t.Fatalf("%q: %v", l, err)
		}
	}
}

func TestREPL_AddDragRemove(t *testing.T) {
	r, fb, _ := newRepl(t)
	run(t, r, "mode waypoints", "click 44.96 -93.51", "click 44.97 -93.52")

	st, err := r.board.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Waypoints) != 2 {
		t.Fatalf("expected 2 waypoints, got %d", len(st.Waypoints))
	}

	first := st.Waypoints[0].ID
	run(t, r, "drag "+first+" 44.95 -93.5", "rm 44.97 -93.52")
	if err := r.board.Wait(); err != nil {
		t.Fatal(err)
	}

	want := []domain.Op{domain.OpAdd, domain.OpAdd, domain.OpUpdate, domain.OpRemove}
	got := fb.ops()
	if len(got) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("op %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	st, _ = r.board.Snapshot()
	if len(st.Waypoints) != 1 || st.Waypoints[0].Lat != 44.95 {
		t.Errorf("unexpected waypoints %+v", st.Waypoints)
	}
}

func TestREPL_ClickIgnoredInMoveMode(t *testing.T) {
	r, fb, out := newRepl(t)
	run(t, r, "mode move", "click 1 2")
	_ = r.board.Wait()

	if len(fb.ops()) != 0 {
		t.Errorf("expected no commands, got %v", fb.ops())
	}
	if !strings.Contains(out.String(), "ignored") {
		t.Errorf("expected ignore notice, got %q", out.String())
	}
}

func TestREPL_Errors(t *testing.T) {
	r, _, _ := newRepl(t)

	tests := []struct {
		line  string
		usage bool
	}{
		{"click 1", true},
		{"click a b", false},
		{"drag x 1", true},
		{"rm", true},
		{"mode", true},
		{"mode flying", false},
		{"scroll", true},
		{"scroll up", false},
		{"teleport", false},
	}
	for _, tt := range tests {
		_, err := r.exec(tt.line)
		if err == nil {
			t.Errorf("%q: expected error", tt.line)
			continue
		}
		if errors.Is(err, errUsage) != tt.usage {
			t.Errorf("%q: usage error = %v, got %v", tt.line, tt.usage, err)
		}
	}
}

func TestREPL_Quit(t *testing.T) {
	r, _, _ := newRepl(t)
	for _, l := range []string{"quit", "exit", "q"} {
		quit, err := r.exec(l)
		if err != nil || !quit {
			t.Errorf("%q: expected quit, got %v %v", l, quit, err)
		}
	}
	if quit, _ := r.exec(""); quit {
		t.Error("blank line should not quit")
	}
}

func TestREPL_RobotAndShow(t *testing.T) {
	r, _, out := newRepl(t)
	run(t, r, "robot", "robot 0 0.002", "show")

	st, _ := r.board.Snapshot()
	if st.Robot.Lat != 0.001 || st.Robot.Lng != 0.002 {
		t.Errorf("unexpected robot %+v", st.Robot)
	}
	for _, want := range []string{"mode: moveAround", "route: 0 waypoints", "keepout: hidden"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, out.String())
		}
	}
}

func TestREPL_MissionActions(t *testing.T) {
	r, _, _ := newRepl(t)
	run(t, r, "save", "load", "export")

	st, _ := r.board.Snapshot()
	for _, ind := range []string{board.IndicatorSaveMission, board.IndicatorLoadMission, board.IndicatorExport} {
		if !st.Indicators[ind] {
			t.Errorf("expected %s indicator for blank name", ind)
		}
	}

	run(t, r, "save alpha")
	_ = r.board.Wait()
	st, _ = r.board.Snapshot()
	if st.Indicators[board.IndicatorSaveMission] {
		t.Error("save indicator should clear after a named save")
	}
}
