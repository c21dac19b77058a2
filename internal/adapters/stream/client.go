// Package stream follows the backend's /ws event stream on behalf of a
// control board.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/fasthttp/websocket"
)

// Handler receives one frame. Errors are logged and the stream continues.
type Handler func(event string, data []byte) error

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client keeps a websocket subscription open, redialling with backoff.
type Client struct {
	url        string
	dialer     *websocket.Dialer
	minBackoff time.Duration
	maxBackoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the network dial, e.g. for in-memory listeners.
func WithDialer(dial func(network, addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.dialer.NetDial = dial }
}

// WithBackoff sets the redial delay bounds.
func WithBackoff(lo, hi time.Duration) Option {
	return func(c *Client) { c.minBackoff, c.maxBackoff = lo, hi }
}

// New creates a Client for the stream at wsURL.
func New(wsURL string, opts ...Option) *Client {
	c := &Client{
		url:        wsURL,
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URLFor derives the stream URL from a backend base URL.
func URLFor(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// Run delivers frames to h until ctx is done, reconnecting on failure.
func (c *Client) Run(ctx context.Context, h Handler) error {
	backoff := c.minBackoff
	for {
		connected, err := c.runOnce(ctx, h)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = c.minBackoff
		}
		slog.Warn("event stream dropped", "url", c.url, "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

func (c *Client) runOnce(ctx context.Context, h Handler) (bool, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()
	slog.Info("event stream connected", "url", c.url)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var f frame
		if err := json.Unmarshal(msg, &f); err != nil || f.Event == "" {
			// status replies and errors from the relay carry no event
			continue
		}
		if err := h(f.Event, f.Data); err != nil {
			slog.Warn("stream frame rejected", "event", f.Event, "error", err)
		}
	}
}
