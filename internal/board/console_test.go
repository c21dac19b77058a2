package board

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/navboard/navboard/internal/core/domain"
)

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		ev   domain.LogEvent
		want string
	}{
		{domain.LogEvent{Msg: "hello", Level: "info"}, "[INFO] hello"},
		{domain.LogEvent{Msg: "careful", Level: "warn"}, "[WARN] careful"},
		{domain.LogEvent{Msg: "odom", Level: "debug", Prefix: "ROBOT"}, "[ROBOT] odom"},
	}
	for _, tt := range tests {
		if got := FormatLogLine(tt.ev); got != tt.want {
			t.Errorf("FormatLogLine(%+v) = %q, want %q", tt.ev, got, tt.want)
		}
	}
}

func TestStartupMessage(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 123000000, time.UTC)
	want := "Navigation Control Board Started - 2024-03-05T14:07:09.123Z"
	if got := StartupMessage(ts); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func info(i int) domain.LogEvent {
	return domain.LogEvent{Msg: fmt.Sprintf("line %d", i), Level: "info"}
}

func TestConsole_FollowsWhenAtBottom(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(100, 3, &out)
	for i := 0; i < 5; i++ {
		c.Append(info(i))
	}
	if !c.AtBottom() {
		t.Fatal("expected view at bottom")
	}
	vis := c.Visible()
	if len(vis) != 3 || vis[2] != "[INFO] line 4" {
		t.Errorf("unexpected view %v", vis)
	}
	if strings.Count(out.String(), "\n") != 5 {
		t.Errorf("expected every line echoed, got %q", out.String())
	}
}

func TestConsole_StaysPutWhenScrolledUp(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(100, 3, &out)
	for i := 0; i < 6; i++ {
		c.Append(info(i))
	}
	c.Scroll(-2)
	if c.AtBottom() {
		t.Fatal("expected view off the bottom")
	}
	before := c.Visible()
	out.Reset()

	c.Append(info(6))
	after := c.Visible()
	if before[0] != after[0] {
		t.Errorf("view moved: %v -> %v", before, after)
	}
	if out.Len() != 0 {
		t.Errorf("expected no echo while scrolled up, got %q", out.String())
	}

	c.ScrollToBottom()
	if vis := c.Visible(); vis[len(vis)-1] != "[INFO] line 6" {
		t.Errorf("expected newest line after scrolling down, got %v", vis)
	}
}

func TestConsole_ScrollClamps(t *testing.T) {
	c := NewConsole(100, 3, nil)
	for i := 0; i < 4; i++ {
		c.Append(info(i))
	}
	c.Scroll(-50)
	if vis := c.Visible(); vis[0] != "[INFO] line 0" {
		t.Errorf("expected top of history, got %v", vis)
	}
	c.Scroll(50)
	if !c.AtBottom() {
		t.Error("expected scroll to clamp at bottom")
	}
}

func TestConsole_BoundedHistory(t *testing.T) {
	c := NewConsole(5, 2, nil)
	for i := 0; i < 12; i++ {
		c.Append(info(i))
	}
	lines := c.Lines()
	if len(lines) != 5 || lines[0] != "[INFO] line 7" {
		t.Errorf("expected last 5 lines, got %v", lines)
	}
	if !c.AtBottom() {
		t.Error("expected view to keep following")
	}
}
