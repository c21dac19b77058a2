package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/ports"
)

// LogService publishes console log lines to connected control boards.
type LogService struct {
	publisher ports.EventPublisher
	prefix    string
}

// NewLogService creates a LogService. A nil publisher only writes to slog.
func NewLogService(publisher ports.EventPublisher, prefix string) *LogService {
	return &LogService{publisher: publisher, prefix: prefix}
}

// Publish sends one console line.
func (s *LogService) Publish(ctx context.Context, level, msg string) {
	if s == nil {
		return
	}
	ev := &domain.LogEvent{Msg: msg, Level: level, Prefix: s.prefix}

	slog.Log(ctx, slogLevel(level), msg, "source", "console")

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLog(ctx, ev); err != nil {
		slog.Warn("publish log event failed", "error", err)
	}
}

func (s *LogService) Infof(ctx context.Context, format string, args ...any) {
	s.Publish(ctx, domain.LevelInfo, fmt.Sprintf(format, args...))
}

func (s *LogService) Warnf(ctx context.Context, format string, args ...any) {
	s.Publish(ctx, domain.LevelWarn, fmt.Sprintf(format, args...))
}

func (s *LogService) Errorf(ctx context.Context, format string, args ...any) {
	s.Publish(ctx, domain.LevelError, fmt.Sprintf(format, args...))
}

func slogLevel(level string) slog.Level {
	switch level {
	case domain.LevelDebug:
		return slog.LevelDebug
	case domain.LevelWarn:
		return slog.LevelWarn
	case domain.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
