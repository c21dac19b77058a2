package backend_test

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/navboard/navboard/internal/adapters/backend"
	handler "github.com/navboard/navboard/internal/adapters/http"
	"github.com/navboard/navboard/internal/adapters/local"
	"github.com/navboard/navboard/internal/board"
	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/usecases"
)

const zonesDoc = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
"geometry":{"type":"Polygon","coordinates":[[[-93.52,44.96],[-93.51,44.96],[-93.51,44.97],[-93.52,44.97],[-93.52,44.96]]]}}]}`

type fixture struct {
	client    *backend.Client
	waypoints *usecases.WaypointService
}

// newFixture serves the real backend routes on an in-memory listener.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLog(t, usecases.NewCommandLog(0, 0))
}

func newFixtureWithLog(t *testing.T, commands *usecases.CommandLog) *fixture {
	t.Helper()
	dir := t.TempDir()
	zones := filepath.Join(dir, "zones.json")
	if err := os.WriteFile(zones, []byte(zonesDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	broker := local.NewBroker()
	logs := usecases.NewLogService(broker, "")
	waypoints := usecases.NewWaypointService(local.NewWaypointStore(), logs, commands)
	deps := &handler.Dependencies{
		Waypoints: waypoints,
		Missions:  usecases.NewMissionService(local.NewMissionStore(filepath.Join(dir, "missions")), waypoints, logs, filepath.Join(dir, "exports")),
		Zones:     usecases.NewZoneService(zones, nil, 0),
		Telemetry: usecases.NewTelemetryService(domain.RobotPose{}, broker),
		Logs:      logs,
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps, handler.Options{})

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	hc := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
	}
	return &fixture{client: backend.New("http://navboard.test/", hc), waypoints: waypoints}
}

func TestClient_Commands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ack, err := f.client.Send(ctx, domain.Command{Op: domain.OpAdd, ID: "w1", Point: domain.GeoPoint{Lat: 1, Lng: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if ack.Message != "Added waypoint: [1, 2] successfully" || ack.Status != domain.CommandApplied {
		t.Errorf("unexpected ack %+v", ack)
	}

	if _, err := f.client.Send(ctx, domain.Command{Op: domain.OpUpdate, ID: "w1", Old: domain.GeoPoint{Lat: 1, Lng: 2}, Point: domain.GeoPoint{Lat: 3, Lng: 4}}); err != nil {
		t.Fatal(err)
	}

	wps, err := f.client.Waypoints(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(wps) != 1 || wps[0].ID != "w1" || wps[0].Lat != 3 {
		t.Errorf("unexpected list %+v", wps)
	}

	_, err = f.client.Send(ctx, domain.Command{Op: domain.OpRemove, ID: "missing"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	var se *backend.StatusError
	if !errors.As(err, &se) || se.Status != 404 {
		t.Errorf("expected a 404 StatusError, got %v", err)
	}

	if _, err := f.client.Send(ctx, domain.Command{Op: domain.OpClear, Session: "s", Seq: 1}); err != nil {
		t.Fatal(err)
	}
	if got := f.waypoints.AppliedSeq("s"); got != 1 {
		t.Errorf("expected clear to be sequenced, applied seq %d", got)
	}
}

func TestClient_SequencedAcks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ack, err := f.client.Send(ctx, domain.Command{Op: domain.OpAdd, Session: "s", Seq: 2, Point: domain.GeoPoint{Lat: 2, Lng: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if ack.Status != domain.CommandQueued || ack.Applied != 0 {
		t.Errorf("expected queued with nothing applied, got %+v", ack)
	}

	ack, err = f.client.Send(ctx, domain.Command{Op: domain.OpAdd, Session: "s", Seq: 1, Point: domain.GeoPoint{Lat: 1, Lng: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if ack.Status != domain.CommandApplied || ack.Applied != 2 {
		t.Errorf("expected seq 1 to release seq 2, got %+v", ack)
	}

	ack, err = f.client.Send(ctx, domain.Command{Op: domain.OpClear, Session: "s", Seq: 2})
	if err != nil {
		t.Fatal(err)
	}
	if ack.Status != domain.CommandDuplicate || ack.Applied != 2 {
		t.Errorf("expected duplicate, got %+v", ack)
	}
}

func TestStatusError_Unwrap(t *testing.T) {
	tests := []struct {
		err  *backend.StatusError
		want error
	}{
		{&backend.StatusError{Status: 404, Code: "not_found"}, domain.ErrNotFound},
		{&backend.StatusError{Status: 409, Code: "conflict"}, domain.ErrCommandGap},
		{&backend.StatusError{Status: 409, Code: "unknown_session"}, domain.ErrUnknownSession},
		{&backend.StatusError{Status: 400, Code: "bad_request", Message: "invalid file name"}, domain.ErrInvalidFileName},
		{&backend.StatusError{Status: 500}, nil},
	}
	for _, tt := range tests {
		if got := tt.err.Unwrap(); got != tt.want {
			t.Errorf("%d %s: got %v, want %v", tt.err.Status, tt.err.Code, got, tt.want)
		}
	}
}

func TestClient_Missions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.client.Send(ctx, domain.Command{Op: domain.OpAdd, Point: domain.GeoPoint{Lat: 5, Lng: 6}})

	msg, err := f.client.SaveMission(ctx, "m1")
	if err != nil || msg != "Saved Mission: m1" {
		t.Fatalf("save: %q %v", msg, err)
	}
	if _, err := f.client.ExportWaypoints(ctx, "m1"); err != nil {
		t.Fatalf("export: %v", err)
	}

	m, err := f.client.LoadMission(ctx, "m1")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "m1" || len(m.Waypoints) != 1 {
		t.Errorf("unexpected mission %+v", m)
	}

	if _, err := f.client.LoadMission(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.client.SaveMission(ctx, "bad/name"); !errors.Is(err, domain.ErrInvalidFileName) {
		t.Errorf("expected ErrInvalidFileName, got %v", err)
	}
}

func TestClient_KeepoutZones(t *testing.T) {
	f := newFixture(t)

	data, err := f.client.KeepoutZones(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "FeatureCollection") {
		t.Errorf("unexpected document %s", data)
	}
}

func TestClient_ReportPose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.client.ReportPose(ctx, domain.RobotPose{GeoPoint: domain.GeoPoint{Lat: 44.9, Lng: -93.5}, Heading: 45}); err != nil {
		t.Fatal(err)
	}
	err := f.client.ReportPose(ctx, domain.RobotPose{GeoPoint: domain.GeoPoint{Lat: 95}})
	var se *backend.StatusError
	if !errors.As(err, &se) || se.Status != 400 {
		t.Errorf("expected a 400 StatusError, got %v", err)
	}
}

func TestClient_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.client.Waypoints(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// A board wired to the real backend keeps both lists identical.
func TestBoard_EndToEnd(t *testing.T) {
	f := newFixture(t)

	b := board.New(f.client, board.Config{RequestTimeout: 2 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	if err := b.SelectMode(board.AddWaypoints); err != nil {
		t.Fatal(err)
	}
	for _, p := range []domain.GeoPoint{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 3}} {
		if _, err := b.Click(p); err != nil {
			t.Fatal(err)
		}
	}
	st, err := b.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.DragWaypoint(st.Waypoints[1].ID, domain.GeoPoint{Lat: 9, Lng: 9}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.RemoveWaypoint(st.Waypoints[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := b.Wait(); err != nil {
		t.Fatal(err)
	}

	st, err = b.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	remote := f.waypoints.List()
	if len(remote) != len(st.Waypoints) {
		t.Fatalf("board has %d waypoints, backend %d", len(st.Waypoints), len(remote))
	}
	for i := range remote {
		if remote[i] != st.Waypoints[i] {
			t.Errorf("waypoint %d differs: board %+v backend %+v", i, st.Waypoints[i], remote[i])
		}
	}
	if st.Indicators[board.IndicatorWaypoints] {
		t.Error("sync indicator should be clear")
	}
}

// After the backend expires an idle session, the board flags the lost
// commands instead of treating them as synced, and a reconcile recovers.
func TestBoard_ExpiredSessionEndToEnd(t *testing.T) {
	var offset atomic.Int64
	clock := func() time.Time { return time.Now().Add(time.Duration(offset.Load())) }
	f := newFixtureWithLog(t, usecases.NewCommandLog(0, time.Hour).WithClock(clock))

	b := board.New(f.client, board.Config{RequestTimeout: 2 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	click := func(n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			if _, err := b.Click(domain.GeoPoint{Lat: float64(i), Lng: float64(i)}); err != nil {
				t.Fatal(err)
			}
		}
		if err := b.Wait(); err != nil {
			t.Fatal(err)
		}
	}

	if err := b.SelectMode(board.AddWaypoints); err != nil {
		t.Fatal(err)
	}
	click(3)
	offset.Store(int64(2 * time.Hour))
	click(3)

	st, err := b.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Waypoints) != 6 || len(f.waypoints.List()) != 3 {
		t.Fatalf("board %d waypoints, backend %d", len(st.Waypoints), len(f.waypoints.List()))
	}
	if !st.Indicators[board.IndicatorWaypoints] {
		t.Fatal("lost commands must set the waypoint indicator")
	}

	if err := b.Reconcile(); err != nil {
		t.Fatal(err)
	}
	if err := b.Wait(); err != nil {
		t.Fatal(err)
	}
	click(1)
	st, err = b.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if st.Indicators[board.IndicatorWaypoints] {
		t.Error("indicator should clear after reconcile")
	}
	if len(st.Waypoints) != 4 || len(f.waypoints.List()) != 4 {
		t.Errorf("board %d waypoints, backend %d", len(st.Waypoints), len(f.waypoints.List()))
	}
}
