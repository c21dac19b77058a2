package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default logger on stdout.
func Setup(level, format string) {
	SetupTo(os.Stdout, level, format)
}

// SetupTo installs a default logger writing to w. Interactive binaries pass
// stderr so log lines stay out of the console pane.
func SetupTo(w io.Writer, level, format string) *slog.Logger {
	l := New(w, level, format)
	slog.SetDefault(l)
	return l
}

// New builds a logger. level is debug, info, warn or error (default info);
// format is json or text (default json).
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
