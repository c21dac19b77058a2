// Package backend is the control board's HTTP client for the navigation
// backend.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/navboard/navboard/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

const (
	headerCommandStatus = "X-Command-Status"
	headerAppliedSeq    = "X-Applied-Seq"
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto domain errors.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case fasthttp.StatusNotFound:
		return domain.ErrNotFound
	case fasthttp.StatusConflict:
		if e.Code == "unknown_session" {
			return domain.ErrUnknownSession
		}
		return domain.ErrCommandGap
	case fasthttp.StatusBadRequest:
		if e.Code == "bad_request" && strings.Contains(e.Message, domain.ErrInvalidFileName.Error()) {
			return domain.ErrInvalidFileName
		}
	}
	return nil
}

// Client implements board.Backend over fasthttp.
type Client struct {
	base   string
	client *fasthttp.Client
}

// New creates a Client for the backend at baseURL. A nil hc gets a default
// fasthttp.Client.
func New(baseURL string, hc *fasthttp.Client) *Client {
	if hc == nil {
		hc = &fasthttp.Client{
			Name:                "navboard-board",
			MaxConnsPerHost:     16,
			ReadTimeout:         defaultTimeout,
			WriteTimeout:        defaultTimeout,
			MaxIdleConnDuration: time.Minute,
		}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), client: hc}
}

type waypointBody struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	ID      string  `json:"id,omitempty"`
	Session string  `json:"session,omitempty"`
	Seq     uint64  `json:"seq,omitempty"`
}

type updateBody struct {
	OldLat  float64 `json:"old_lat"`
	OldLng  float64 `json:"old_lng"`
	NewLat  float64 `json:"new_lat"`
	NewLng  float64 `json:"new_lng"`
	ID      string  `json:"id,omitempty"`
	Session string  `json:"session,omitempty"`
	Seq     uint64  `json:"seq,omitempty"`
}

type fileBody struct {
	FileName string `json:"file_name"`
}

// Send delivers one waypoint command and returns the backend's ack. A 202
// reply means the command is buffered behind a missing seq.
func (c *Client) Send(ctx context.Context, cmd domain.Command) (domain.CommandAck, error) {
	var (
		path    string
		method  = fasthttp.MethodPost
		payload any
	)
	switch cmd.Op {
	case domain.OpAdd:
		path = "/add_waypoint"
		payload = waypointBody{Lat: cmd.Point.Lat, Lng: cmd.Point.Lng, ID: cmd.ID, Session: cmd.Session, Seq: cmd.Seq}
	case domain.OpRemove:
		path = "/del_waypoint"
		payload = waypointBody{Lat: cmd.Point.Lat, Lng: cmd.Point.Lng, ID: cmd.ID, Session: cmd.Session, Seq: cmd.Seq}
	case domain.OpUpdate:
		path = "/update_waypoint"
		payload = updateBody{
			OldLat: cmd.Old.Lat, OldLng: cmd.Old.Lng,
			NewLat: cmd.Point.Lat, NewLng: cmd.Point.Lng,
			ID: cmd.ID, Session: cmd.Session, Seq: cmd.Seq,
		}
	case domain.OpClear:
		method = fasthttp.MethodGet
		path = "/clear_waypoints"
		if cmd.Sequenced() {
			q := url.Values{}
			q.Set("session", cmd.Session)
			q.Set("seq", strconv.FormatUint(cmd.Seq, 10))
			path += "?" + q.Encode()
		}
	default:
		return domain.CommandAck{}, fmt.Errorf("unknown op %q", cmd.Op)
	}

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return domain.CommandAck{}, err
		}
	}

	ack := domain.CommandAck{Status: domain.CommandApplied}
	resp, err := c.roundTrip(ctx, method, path, body, func(status int, h *fasthttp.ResponseHeader) {
		if status == fasthttp.StatusAccepted {
			ack.Status = domain.CommandQueued
		}
		if v := h.Peek(headerCommandStatus); len(v) > 0 {
			ack.Status = domain.CommandStatus(v)
		}
		if v, err := strconv.ParseUint(string(h.Peek(headerAppliedSeq)), 10, 64); err == nil {
			ack.Applied = v
		}
	})
	if err != nil {
		// error replies still report the session's applied seq
		return domain.CommandAck{Applied: ack.Applied}, err
	}
	ack.Message = string(resp)
	return ack, nil
}

// Waypoints fetches the backend's active list.
func (c *Client) Waypoints(ctx context.Context) ([]domain.Waypoint, error) {
	body, err := c.do(ctx, fasthttp.MethodGet, "/waypoints", nil)
	if err != nil {
		return nil, err
	}
	var wps []domain.Waypoint
	if err := json.Unmarshal(body, &wps); err != nil {
		return nil, fmt.Errorf("decode waypoints: %w", err)
	}
	return wps, nil
}

func (c *Client) SaveMission(ctx context.Context, name string) (string, error) {
	return c.postText(ctx, "/save_mission", fileBody{FileName: name})
}

func (c *Client) LoadMission(ctx context.Context, name string) (*domain.Mission, error) {
	payload, err := json.Marshal(fileBody{FileName: name})
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, fasthttp.MethodPost, "/load_mission", payload)
	if err != nil {
		return nil, err
	}
	var m domain.Mission
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode mission: %w", err)
	}
	return &m, nil
}

func (c *Client) ExportWaypoints(ctx context.Context, name string) (string, error) {
	return c.postText(ctx, "/export_waypoints", fileBody{FileName: name})
}

// KeepoutZones fetches the raw predefined keepout GeoJSON document.
func (c *Client) KeepoutZones(ctx context.Context) ([]byte, error) {
	return c.do(ctx, fasthttp.MethodGet, "/static/zones/default_keepout_zones.json", nil)
}

// ReportPose posts a robot telemetry report.
func (c *Client) ReportPose(ctx context.Context, pose domain.RobotPose) error {
	payload, err := json.Marshal(pose)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, fasthttp.MethodPost, "/robot/pose", payload)
	return err
}

func (c *Client) postText(ctx context.Context, path string, v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	body, err := c.do(ctx, fasthttp.MethodPost, path, payload)
	return string(body), err
}

// do performs one request bounded by ctx's deadline (or the default
// timeout) and returns a copy of the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	return c.roundTrip(ctx, method, path, payload, nil)
}

// roundTrip is do with access to the status and headers of the response
// before it is released. inspect sees error responses too.
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, inspect func(status int, h *fasthttp.ResponseHeader)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(method)
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	body := append([]byte(nil), resp.Body()...)
	status := resp.StatusCode()
	if inspect != nil {
		inspect(status, &resp.Header)
	}
	if status < 200 || status > 299 {
		se := &StatusError{Status: status}
		var envelope struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &envelope) == nil {
			se.Code, se.Message = envelope.Code, envelope.Message
		} else {
			se.Message = strings.TrimSpace(string(body))
		}
		return nil, se
	}
	return body, nil
}
