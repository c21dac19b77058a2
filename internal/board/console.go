package board

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/navboard/navboard/internal/core/domain"
)

const (
	defaultConsoleHistory = 1000
	defaultConsoleHeight  = 20
)

// FormatLogLine renders a log event as "[PREFIX] msg", falling back to the
// upper-cased level when there is no prefix.
func FormatLogLine(ev domain.LogEvent) string {
	tag := ev.Prefix
	if tag == "" {
		tag = strings.ToUpper(ev.Level)
	}
	return "[" + tag + "] " + ev.Msg
}

// StartupMessage is the first console line of a session.
func StartupMessage(t time.Time) string {
	return "Navigation Control Board Started - " + t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Console is a bounded log view with a scroll window. New lines follow the
// view only when it was already at the bottom.
type Console struct {
	lines  []string
	max    int
	height int
	offset int // index of the first visible line
	out    io.Writer
}

// NewConsole returns a console keeping at most history lines and showing
// height of them. Lines that land in view are also written to out, if set.
func NewConsole(history, height int, out io.Writer) *Console {
	if history <= 0 {
		history = defaultConsoleHistory
	}
	if height <= 0 {
		height = defaultConsoleHeight
	}
	return &Console{max: history, height: height, out: out}
}

// AtBottom reports whether the last line is visible.
func (c *Console) AtBottom() bool {
	return c.offset+c.height >= len(c.lines)
}

// Append adds one log event.
func (c *Console) Append(ev domain.LogEvent) {
	follow := c.AtBottom()
	line := FormatLogLine(ev)

	c.lines = append(c.lines, line)
	if over := len(c.lines) - c.max; over > 0 {
		c.lines = append(c.lines[:0], c.lines[over:]...)
		c.offset = max(0, c.offset-over)
	}

	if follow {
		c.offset = max(0, len(c.lines)-c.height)
		if c.out != nil {
			fmt.Fprintln(c.out, line)
		}
	}
}

// Scroll moves the view by delta lines (negative is up), clamped to the
// history.
func (c *Console) Scroll(delta int) {
	c.offset = min(max(0, c.offset+delta), max(0, len(c.lines)-c.height))
}

// ScrollToBottom jumps to the newest lines.
func (c *Console) ScrollToBottom() {
	c.offset = max(0, len(c.lines)-c.height)
}

// Visible returns the lines inside the view.
func (c *Console) Visible() []string {
	end := min(len(c.lines), c.offset+c.height)
	out := make([]string, end-c.offset)
	copy(out, c.lines[c.offset:end])
	return out
}

// Lines returns the full retained history.
func (c *Console) Lines() []string {
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Console) Len() int { return len(c.lines) }
