package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/navboard/navboard/internal/core/domain"
)

// ErrStopped is returned by calls made after the event loop has exited.
var ErrStopped = errors.New("board stopped")

// Config holds the session settings.
type Config struct {
	Start          domain.RobotPose
	RequestTimeout time.Duration
	ConsoleHistory int
	ConsoleHeight  int
	// ConsoleOut receives console lines that scroll into view.
	ConsoleOut io.Writer
}

// State is a point-in-time copy of the board for rendering and tests.
type State struct {
	Mode          Mode
	Robot         domain.RobotPose
	Points        []domain.GeoPoint
	Waypoints     []domain.Waypoint
	KeepoutLoaded bool
	KeepoutZones  int
	Indicators    map[string]bool
	Session       string
	Seq           uint64
	Queued        int // buffered by the backend, not yet applied
}

// Board is one control board session. All state is owned by the goroutine
// running Run; the exported methods post work to it and wait.
type Board struct {
	events  chan func()
	stopped chan struct{}
	timeout time.Duration

	// set once Run starts; read only from the loop
	runCtx context.Context

	// loop-only: spawned work not yet completed, and Wait callers to wake
	// when it drains
	inflight int
	idle     []chan struct{}

	seq        *Sequence
	mode       *ModeController
	keepout    *KeepoutOverlay
	console    *Console
	indicators Indicators
	syncer     *SyncClient
	missions   *MissionActions
}

// New creates a board talking to backend. Call Run to start it.
func New(backend Backend, cfg Config) *Board {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	b := &Board{
		events:     make(chan func(), 64),
		stopped:    make(chan struct{}),
		timeout:    cfg.RequestTimeout,
		runCtx:     context.Background(),
		seq:        NewSequence(cfg.Start),
		mode:       NewModeController(),
		keepout:    NewKeepoutOverlay(backend.KeepoutZones),
		console:    NewConsole(cfg.ConsoleHistory, cfg.ConsoleHeight, cfg.ConsoleOut),
		indicators: Indicators{},
	}
	b.syncer = newSyncClient(backend, b.spawn, b.commandDone, b.commandStalled)
	b.missions = newMissionActions(backend, b.spawn, b.indicators, b.logf, b.missionLoaded)
	b.mode.OnChange(func(from, to Mode) {
		slog.Debug("interaction mode changed", "from", from, "to", to)
	})
	return b
}

// Run processes events until ctx is cancelled.
func (b *Board) Run(ctx context.Context) error {
	b.runCtx = ctx
	defer close(b.stopped)

	b.logf(domain.LevelInfo, StartupMessage(time.Now()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-b.events:
			fn()
		}
	}
}

// Do runs fn on the event loop and waits for it to finish.
func (b *Board) Do(fn func()) error {
	select {
	case <-b.stopped:
		return ErrStopped
	default:
	}

	done := make(chan struct{})
	select {
	case b.events <- func() { fn(); close(done) }:
	case <-b.stopped:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-b.stopped:
		return ErrStopped
	}
}

// Wait blocks until every in-flight request has completed and its
// completion has run on the loop, including work spawned by completions.
func (b *Board) Wait() error {
	drained := make(chan struct{})
	err := b.Do(func() {
		if b.inflight == 0 {
			close(drained)
			return
		}
		b.idle = append(b.idle, drained)
	})
	if err != nil {
		return err
	}
	select {
	case <-drained:
		return nil
	case <-b.stopped:
		return ErrStopped
	}
}

// spawn runs work on its own goroutine with a per-request timeout and posts
// the returned completion to the loop. Loop-only.
func (b *Board) spawn(work func(ctx context.Context) func()) {
	parent := b.runCtx
	b.inflight++
	go func() {
		ctx, cancel := context.WithTimeout(parent, b.timeout)
		done := work(ctx)
		cancel()
		select {
		case b.events <- func() { b.finish(done) }:
		case <-b.stopped:
		}
	}()
}

// finish runs a completion and wakes Wait callers once nothing is in flight.
func (b *Board) finish(done func()) {
	if done != nil {
		done()
	}
	b.inflight--
	if b.inflight > 0 {
		return
	}
	for _, ch := range b.idle {
		close(ch)
	}
	b.idle = nil
}

func (b *Board) logf(level, msg string) {
	b.console.Append(domain.LogEvent{Msg: msg, Level: level})
}

// --- toolbar and map input ---

// SelectMode switches the interaction mode.
func (b *Board) SelectMode(m Mode) error {
	return b.Do(func() { b.mode.Select(m) })
}

// Click handles a map click at p and reports what it resolved to.
func (b *Board) Click(p domain.GeoPoint) (Action, error) {
	var action Action
	err := b.Do(func() {
		action = b.mode.Route(p)
		switch action {
		case ActionAddWaypoint:
			b.addWaypoint(p)
		case ActionAddKeepoutZone:
			b.logf(domain.LevelWarn, "Drawing keepout zones is not implemented")
		}
	})
	return action, err
}

func (b *Board) addWaypoint(p domain.GeoPoint) {
	wp := b.seq.Add(p)
	b.warnIfKeepout(p)
	b.syncer.SyncAdd(wp)
}

// DragWaypoint moves the waypoint with id to p. Unknown ids are ignored.
func (b *Board) DragWaypoint(id string, p domain.GeoPoint) (bool, error) {
	var ok bool
	err := b.Do(func() {
		var old domain.GeoPoint
		old, ok = b.seq.UpdateByID(id, p)
		if !ok {
			return
		}
		b.warnIfKeepout(p)
		b.syncer.SyncUpdate(id, old, p)
	})
	return ok, err
}

// RemoveWaypoint deletes the waypoint with id.
func (b *Board) RemoveWaypoint(id string) (bool, error) {
	var ok bool
	err := b.Do(func() {
		var wp domain.Waypoint
		wp, ok = b.seq.RemoveByID(id)
		if ok {
			b.syncer.SyncRemove(wp)
		}
	})
	return ok, err
}

// RemoveAt deletes the first waypoint exactly at p.
func (b *Board) RemoveAt(p domain.GeoPoint) (bool, error) {
	var ok bool
	err := b.Do(func() {
		var wp domain.Waypoint
		if wp, ok = b.seq.Lookup(p); ok {
			b.seq.RemoveByID(wp.ID)
			b.syncer.SyncRemove(wp)
		}
	})
	return ok, err
}

// ClearWaypoints drops every user waypoint and switches to AddWaypoints.
func (b *Board) ClearWaypoints() error {
	return b.Do(func() {
		b.mode.Select(AddWaypoints)
		b.seq.Clear()
		b.syncer.SyncClearAll()
	})
}

// ToggleKeepout loads or unloads the predefined keepout zones. A toggle
// while a load is in flight is ignored.
func (b *Board) ToggleKeepout() error {
	return b.Do(func() {
		if b.keepout.Loaded() {
			b.keepout.Unload()
			return
		}
		if b.keepout.loading {
			return
		}
		b.keepout.loading = true
		b.spawn(func(ctx context.Context) func() {
			fc, err := b.keepout.Fetch(ctx)
			return func() {
				if err != nil {
					b.keepout.loading = false
					b.logf(domain.LevelError, err.Error())
					return
				}
				b.keepout.Show(fc)
			}
		})
	})
}

func (b *Board) warnIfKeepout(p domain.GeoPoint) {
	if b.keepout.Contains(p) {
		b.logf(domain.LevelWarn, fmt.Sprintf("Waypoint %s is inside a keepout zone", p))
	}
}

// SaveMission, LoadMission and ExportWaypoints return false when the name
// was rejected before any request was made.

func (b *Board) SaveMission(name string) (bool, error) {
	var sent bool
	err := b.Do(func() { sent = b.missions.Save(name) })
	return sent, err
}

func (b *Board) LoadMission(name string) (bool, error) {
	var sent bool
	err := b.Do(func() { sent = b.missions.Load(name) })
	return sent, err
}

func (b *Board) ExportWaypoints(name string) (bool, error) {
	var sent bool
	err := b.Do(func() { sent = b.missions.Export(name) })
	return sent, err
}

func (b *Board) missionLoaded(m *domain.Mission) {
	b.seq.Replace(m.Waypoints)
}

// Reconcile replaces the local list with the backend's.
func (b *Board) Reconcile() error {
	return b.Do(func() {
		b.syncer.Reconcile(func(wps []domain.Waypoint, err error) {
			if err != nil {
				b.indicators.Set(IndicatorWaypoints, true)
				b.logf(domain.LevelError, "Reconcile failed: "+err.Error())
				return
			}
			b.seq.Replace(wps)
			b.indicators.Set(IndicatorWaypoints, false)
			b.logf(domain.LevelInfo, fmt.Sprintf("Reconciled %d waypoints from backend", len(wps)))
		})
	})
}

func (b *Board) commandDone(cmd domain.Command, _ domain.CommandAck, err error) {
	if err == nil {
		return
	}
	b.indicators.Set(IndicatorWaypoints, true)
	msg := fmt.Sprintf("Sync %s #%d failed: %v", cmd.Op, cmd.Seq, err)
	if errors.Is(err, domain.ErrUnknownSession) {
		msg += "; run sync to reconcile"
	}
	b.logf(domain.LevelError, msg)
}

func (b *Board) commandStalled(cmd domain.Command) {
	b.indicators.Set(IndicatorWaypoints, true)
	b.logf(domain.LevelError, fmt.Sprintf("Sync %s #%d stalled: backend is missing earlier commands; run sync to reconcile", cmd.Op, cmd.Seq))
}

// --- telemetry and event stream ---

// AdvanceRobot shifts the robot pose by delta.
func (b *Board) AdvanceRobot(delta domain.GeoPoint) error {
	return b.Do(func() { b.seq.AdvanceRobot(delta) })
}

// SetRobotPose applies a telemetry report.
func (b *Board) SetRobotPose(pose domain.RobotPose) error {
	return b.Do(func() { b.seq.SetRobot(pose) })
}

// HandleFrame applies one event stream frame. Unknown events are ignored.
func (b *Board) HandleFrame(event string, data []byte) error {
	switch event {
	case "log":
		var ev domain.LogEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("decode log event: %w", err)
		}
		return b.Do(func() { b.console.Append(ev) })
	case "pose":
		var pose domain.RobotPose
		if err := json.Unmarshal(data, &pose); err != nil {
			return fmt.Errorf("decode pose event: %w", err)
		}
		return b.SetRobotPose(pose)
	}
	slog.Debug("ignoring stream event", "event", event)
	return nil
}

// --- console ---

// ScrollConsole moves the console view by delta lines.
func (b *Board) ScrollConsole(delta int) error {
	return b.Do(func() { b.console.Scroll(delta) })
}

// ConsoleView returns the visible lines and whether the view is at the bottom.
func (b *Board) ConsoleView() ([]string, bool, error) {
	var (
		lines  []string
		bottom bool
	)
	err := b.Do(func() {
		lines = b.console.Visible()
		bottom = b.console.AtBottom()
	})
	return lines, bottom, err
}

// ConsoleLines returns the retained console history.
func (b *Board) ConsoleLines() ([]string, error) {
	var lines []string
	err := b.Do(func() { lines = b.console.Lines() })
	return lines, err
}

// Snapshot copies the current board state.
func (b *Board) Snapshot() (State, error) {
	var st State
	err := b.Do(func() {
		st = State{
			Mode:          b.mode.Mode(),
			Robot:         b.seq.Robot(),
			Points:        b.seq.Points(),
			Waypoints:     b.seq.Waypoints(),
			KeepoutLoaded: b.keepout.Loaded(),
			KeepoutZones:  b.keepout.Count(),
			Indicators:    b.indicators.clone(),
			Session:       b.syncer.Session(),
			Seq:           b.syncer.Seq(),
			Queued:        b.syncer.Queued(),
		}
	})
	return st, err
}
