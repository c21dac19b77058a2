package board

import (
	"testing"

	"github.com/navboard/navboard/internal/core/domain"
)

func TestModeController_Route(t *testing.T) {
	c := NewModeController()
	p := domain.GeoPoint{Lat: 1, Lng: 2}

	if c.Mode() != MoveAround {
		t.Fatalf("expected initial MoveAround, got %v", c.Mode())
	}

	tests := []struct {
		mode Mode
		want Action
	}{
		{MoveAround, ActionNone},
		{AddWaypoints, ActionAddWaypoint},
		{AddKeepoutZones, ActionAddKeepoutZone},
		{MoveAround, ActionNone},
	}
	for _, tt := range tests {
		c.Select(tt.mode)
		if got := c.Route(p); got != tt.want {
			t.Errorf("mode %v: expected action %v, got %v", tt.mode, tt.want, got)
		}
	}
}

func TestModeController_OnChange(t *testing.T) {
	c := NewModeController()
	var transitions [][2]Mode
	c.OnChange(func(from, to Mode) { transitions = append(transitions, [2]Mode{from, to}) })

	c.Select(AddWaypoints)
	c.Select(AddWaypoints)
	c.Select(MoveAround)

	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %v", transitions)
	}
	if transitions[0] != [2]Mode{MoveAround, AddWaypoints} {
		t.Errorf("unexpected first transition %v", transitions[0])
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"moveAround":      MoveAround,
		"move":            MoveAround,
		"addWaypoints":    AddWaypoints,
		"WAYPOINTS":       AddWaypoints,
		"addKeepoutZones": AddKeepoutZones,
		" keepout ":       AddKeepoutZones,
	}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("fly"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if AddKeepoutZones.String() != "addKeepoutZones" {
		t.Errorf("unexpected String %q", AddKeepoutZones.String())
	}
}
