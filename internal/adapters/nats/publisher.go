package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/navboard/navboard/internal/core/domain"
)

const (
	streamName  = "NAVBOARD_EVENTS"
	logPrefix   = "navboard.log."
	poseSubject = "navboard.robot.pose"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Short replay window: boards only care about recent events.
	cfg := nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{logPrefix + ">", poseSubject},
		Retention: nats.LimitsPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.MemoryStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// stream may already exist; update it
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishLog(ctx context.Context, ev *domain.LogEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(logSubject(ev.Level), data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishPose(ctx context.Context, pose *domain.RobotPose) error {
	data, err := json.Marshal(pose)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(poseSubject, data, nats.Context(ctx))
	return err
}

// Conn exposes the connection for subscribers and readiness checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("navboard"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

func logSubject(level string) string {
	if level == "" {
		level = domain.LevelInfo
	}
	return logPrefix + level
}
