package board

import (
	"fmt"
	"strings"

	"github.com/navboard/navboard/internal/core/domain"
)

// Mode is the meaning currently assigned to a map click.
type Mode int

const (
	MoveAround Mode = iota
	AddWaypoints
	AddKeepoutZones
)

var modeNames = map[Mode]string{
	MoveAround:      "moveAround",
	AddWaypoints:    "addWaypoints",
	AddKeepoutZones: "addKeepoutZones",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the toolbar names (case-insensitive) plus the short
// forms "move", "waypoints" and "keepout".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movearound", "move":
		return MoveAround, nil
	case "addwaypoints", "waypoints":
		return AddWaypoints, nil
	case "addkeepoutzones", "keepout":
		return AddKeepoutZones, nil
	}
	return MoveAround, fmt.Errorf("unknown mode %q", s)
}

// Action is what a map click resolves to.
type Action int

const (
	ActionNone Action = iota
	ActionAddWaypoint
	ActionAddKeepoutZone
)

// ModeController holds the interaction mode. Transitions happen only via
// Select; there is no terminal state.
type ModeController struct {
	mode     Mode
	onChange func(from, to Mode)
}

func NewModeController() *ModeController {
	return &ModeController{mode: MoveAround}
}

// OnChange registers fn to run after every effective transition.
func (c *ModeController) OnChange(fn func(from, to Mode)) {
	c.onChange = fn
}

func (c *ModeController) Mode() Mode { return c.mode }

func (c *ModeController) Select(m Mode) {
	if m == c.mode {
		return
	}
	from := c.mode
	c.mode = m
	if c.onChange != nil {
		c.onChange(from, m)
	}
}

// Route resolves a click at p under the current mode. Clicks in
// MoveAround fall through to the map's own pan/zoom handling.
func (c *ModeController) Route(p domain.GeoPoint) Action {
	switch c.mode {
	case AddWaypoints:
		return ActionAddWaypoint
	case AddKeepoutZones:
		return ActionAddKeepoutZone
	default:
		return ActionNone
	}
}
