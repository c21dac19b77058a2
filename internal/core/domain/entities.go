package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a waypoint or mission does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFileName is returned for empty or unsafe mission/export names.
	ErrInvalidFileName = errors.New("invalid file name")
	// ErrCommandGap is returned when a session runs too far ahead of the
	// commands the backend has applied.
	ErrCommandGap = errors.New("command sequence gap too large")
	// ErrUnknownSession is returned for commands of a session the backend
	// has expired. The board must reconcile and start a new session.
	ErrUnknownSession = errors.New("unknown command session")
)

// Waypoint is a user-placed navigation target. ID is assigned once at
// creation and survives moves.
type Waypoint struct {
	ID string `json:"id"`
	GeoPoint
}

// Points strips the IDs off a waypoint list.
func Points(wps []Waypoint) []GeoPoint {
	out := make([]GeoPoint, len(wps))
	for i, wp := range wps {
		out[i] = wp.GeoPoint
	}
	return out
}

// Op is a waypoint mutation kind.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpUpdate Op = "update"
	OpClear  Op = "clear"
)

// Command is one waypoint mutation as sent from a control board to the
// backend. Session and Seq are empty/zero for unsequenced legacy callers.
type Command struct {
	Session string   `json:"session,omitempty"`
	Seq     uint64   `json:"seq,omitempty"`
	Op      Op       `json:"op"`
	ID      string   `json:"id,omitempty"`
	Point   GeoPoint `json:"point"`
	Old     GeoPoint `json:"old"` // update only
}

// Sequenced reports whether the command takes part in per-session ordering.
func (c Command) Sequenced() bool {
	return c.Session != "" && c.Seq > 0
}

// CommandStatus is what the backend did with a submitted command.
type CommandStatus string

const (
	CommandApplied   CommandStatus = "applied"
	CommandQueued    CommandStatus = "queued"
	CommandDuplicate CommandStatus = "duplicate"
)

// CommandAck is the backend's reply to one command. Applied is the highest
// seq the backend has applied for the command's session.
type CommandAck struct {
	Status  CommandStatus
	Applied uint64
	Message string
}

// LogEvent is a console log line pushed over the event stream.
type LogEvent struct {
	Msg    string `json:"msg"`
	Level  string `json:"level"`
	Prefix string `json:"prefix,omitempty"`
}

// Log levels understood by the console.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Mission is a named, persisted set of waypoints.
type Mission struct {
	Name      string     `json:"name"`
	Waypoints []Waypoint `json:"waypoints"`
	SavedAt   time.Time  `json:"saved_at"`
}
