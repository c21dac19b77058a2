package natsadapter

import (
	"context"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/navboard/navboard/internal/core/ports"
)

// Subscriber implements ports.EventSubscriber over a shared NATS connection.
// Each call gets its own core subscription, so every board sees every event.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber creates a subscriber sharing a NATS connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(topic string, data []byte)) (func(), error) {
	sub, err := s.conn.Subscribe("navboard.>", func(msg *nats.Msg) {
		if topic, ok := subjectTopic(msg.Subject); ok {
			handler(topic, msg.Data)
		}
	})
	if err != nil {
		return nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() { _ = sub.Unsubscribe() })
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return cancel, nil
}

// subjectTopic maps a NATS subject onto a stream topic.
func subjectTopic(subject string) (string, bool) {
	switch {
	case subject == poseSubject:
		return ports.TopicPose, true
	case strings.HasPrefix(subject, logPrefix):
		return ports.TopicLog, true
	}
	return "", false
}
