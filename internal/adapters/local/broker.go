package local

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/ports"
)

// Broker is an in-process ports.EventPublisher and ports.EventSubscriber,
// used when NATS is not configured. Delivery is synchronous.
type Broker struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(topic string, data []byte)
}

func NewBroker() *Broker {
	return &Broker{handlers: make(map[int]func(string, []byte))}
}

func (b *Broker) PublishLog(ctx context.Context, ev *domain.LogEvent) error {
	return b.publish(ports.TopicLog, ev)
}

func (b *Broker) PublishPose(ctx context.Context, pose *domain.RobotPose) error {
	return b.publish(ports.TopicPose, pose)
}

func (b *Broker) publish(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.handlers {
		h(topic, data)
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, handler func(topic string, data []byte)) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}, nil
}
