package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/navboard/navboard/internal/core/ports"
	"github.com/navboard/navboard/internal/pkg/metrics"
)

// wsFrame is one event relayed to a control board.
type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// wsMessage is sent from client to mute or unmute a topic.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Topic  string `json:"topic"`  // "log" | "pose"
}

// WebSocketHandler returns a handler that relays log and pose events to
// connected boards. Every topic is on by default; clients send
// {"action":"unsubscribe","topic":"pose"} to mute one.
func WebSocketHandler(events ports.EventSubscriber) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		topics := map[string]bool{ports.TopicLog: true, ports.TopicPose: true}

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		unsubscribe, err := events.Subscribe(ctx, func(topic string, data []byte) {
			mu.Lock()
			on := topics[topic]
			mu.Unlock()
			if on {
				_ = writeJSON(wsFrame{Event: topic, Data: data})
			}
		})
		if err != nil {
			slog.Error("ws subscribe failed", "error", err)
			return
		}
		defer unsubscribe()

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Topic != ports.TopicLog && m.Topic != ports.TopicPose {
				_ = writeJSON(map[string]string{"error": "unknown topic: " + m.Topic})
				continue
			}

			switch m.Action {
			case "subscribe", "unsubscribe":
				mu.Lock()
				topics[m.Topic] = m.Action == "subscribe"
				mu.Unlock()
				_ = writeJSON(map[string]string{"status": m.Action + "d", "topic": m.Topic})
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
