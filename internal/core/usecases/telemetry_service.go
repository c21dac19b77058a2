package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/ports"
)

// TelemetryService tracks the latest robot pose and relays it to boards.
type TelemetryService struct {
	mu        sync.RWMutex
	pose      domain.RobotPose
	updatedAt time.Time
	publisher ports.EventPublisher
}

// NewTelemetryService creates a TelemetryService seeded with the start pose.
func NewTelemetryService(start domain.RobotPose, publisher ports.EventPublisher) *TelemetryService {
	return &TelemetryService{pose: start, publisher: publisher}
}

// Report records a new pose and publishes it.
func (s *TelemetryService) Report(ctx context.Context, pose domain.RobotPose) error {
	if pose.Lat < -90 || pose.Lat > 90 || pose.Lng < -180 || pose.Lng > 180 {
		return fmt.Errorf("pose %s out of range", pose.GeoPoint)
	}

	s.mu.Lock()
	s.pose = pose
	s.updatedAt = time.Now()
	s.mu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.PublishPose(ctx, &pose); err != nil {
			slog.Warn("publish pose failed", "error", err)
		}
	}
	return nil
}

// Latest returns the most recent pose and when it was reported
// (zero time for the configured start pose).
func (s *TelemetryService) Latest() (domain.RobotPose, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pose, s.updatedAt
}
