package ports

import (
	"context"

	"github.com/navboard/navboard/internal/core/domain"
)

// Event stream topics relayed to control boards.
const (
	TopicLog  = "log"
	TopicPose = "pose"
)

// EventPublisher publishes board events to a message broker.
type EventPublisher interface {
	PublishLog(ctx context.Context, ev *domain.LogEvent) error
	PublishPose(ctx context.Context, pose *domain.RobotPose) error
}

// EventSubscriber fans broker events out to a handler until the returned
// cancel function is called.
type EventSubscriber interface {
	Subscribe(ctx context.Context, handler func(topic string, data []byte)) (cancel func(), err error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// MissionLoader replaces the active waypoints with a stored mission.
type MissionLoader interface {
	LoadMission(ctx context.Context, name string) (*domain.Mission, error)
}
