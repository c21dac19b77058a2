package board

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/navboard/navboard/internal/core/domain"
)

// Backend is the board's view of the navigation backend.
type Backend interface {
	Send(ctx context.Context, cmd domain.Command) (domain.CommandAck, error)
	Waypoints(ctx context.Context) ([]domain.Waypoint, error)
	SaveMission(ctx context.Context, name string) (string, error)
	LoadMission(ctx context.Context, name string) (*domain.Mission, error)
	ExportWaypoints(ctx context.Context, name string) (string, error)
	KeepoutZones(ctx context.Context) ([]byte, error)
}

// spawnFunc runs work off the event loop and posts the returned completion
// back onto it.
type spawnFunc func(work func(ctx context.Context) func())

// SyncClient mirrors local sequence mutations to the backend, one request
// per mutation. Every command carries the session id and the next seq so
// the backend can apply them in order. Nothing is retried or rolled back.
//
// A command the backend buffers (queued) is resolved once a later reply
// reports an applied seq at or past it. A queued command with no earlier
// command still in flight can no longer be released and is reported as
// stalled; that happens when the backend lost the session.
type SyncClient struct {
	backend Backend
	spawn   spawnFunc
	session string
	seq     uint64
	done    func(cmd domain.Command, ack domain.CommandAck, err error)
	stalled func(cmd domain.Command)

	// current session only
	inflight map[uint64]bool
	queued   map[uint64]domain.Command
	applied  uint64
}

func newSyncClient(backend Backend, spawn spawnFunc, done func(domain.Command, domain.CommandAck, error), stalled func(domain.Command)) *SyncClient {
	c := &SyncClient{
		backend: backend,
		spawn:   spawn,
		done:    done,
		stalled: stalled,
	}
	c.rotate()
	return c
}

func (c *SyncClient) rotate() {
	c.session = uuid.NewString()
	c.seq = 0
	c.applied = 0
	c.inflight = make(map[uint64]bool)
	c.queued = make(map[uint64]domain.Command)
}

// Session returns the current session id.
func (c *SyncClient) Session() string { return c.session }

// Seq returns the last seq handed out.
func (c *SyncClient) Seq() uint64 { return c.seq }

// Queued returns the number of commands the backend reported as buffered
// that are not yet known to be applied.
func (c *SyncClient) Queued() int { return len(c.queued) }

func (c *SyncClient) SyncAdd(wp domain.Waypoint) {
	c.send(domain.Command{Op: domain.OpAdd, ID: wp.ID, Point: wp.GeoPoint})
}

func (c *SyncClient) SyncRemove(wp domain.Waypoint) {
	c.send(domain.Command{Op: domain.OpRemove, ID: wp.ID, Point: wp.GeoPoint})
}

func (c *SyncClient) SyncUpdate(id string, old, p domain.GeoPoint) {
	c.send(domain.Command{Op: domain.OpUpdate, ID: id, Old: old, Point: p})
}

func (c *SyncClient) SyncClearAll() {
	c.send(domain.Command{Op: domain.OpClear})
}

func (c *SyncClient) send(cmd domain.Command) {
	c.seq++
	cmd.Session = c.session
	cmd.Seq = c.seq

	c.inflight[cmd.Seq] = true

	c.spawn(func(ctx context.Context) func() {
		ack, err := c.backend.Send(ctx, cmd)
		return func() {
			if err == nil {
				slog.Debug("waypoint command acknowledged",
					"op", cmd.Op, "seq", cmd.Seq, "status", ack.Status, "applied", ack.Applied, "response", ack.Message)
			}
			if c.done != nil {
				c.done(cmd, ack, err)
			}
			if cmd.Session == c.session {
				c.settle(cmd, ack, err)
			}
		}
	})
}

// settle records the reply to cmd and reports queued commands that can no
// longer be released. Loop-only.
func (c *SyncClient) settle(cmd domain.Command, ack domain.CommandAck, err error) {
	delete(c.inflight, cmd.Seq)
	c.applied = max(c.applied, ack.Applied)
	if err == nil && ack.Status == domain.CommandQueued && cmd.Seq > c.applied {
		c.queued[cmd.Seq] = cmd
	}

	var lowestInflight uint64
	for seq := range c.inflight {
		if lowestInflight == 0 || seq < lowestInflight {
			lowestInflight = seq
		}
	}

	var stalled []uint64
	for seq := range c.queued {
		switch {
		case seq <= c.applied:
			delete(c.queued, seq)
		case lowestInflight == 0 || lowestInflight > seq:
			stalled = append(stalled, seq)
		}
	}
	slices.Sort(stalled)
	for _, seq := range stalled {
		q := c.queued[seq]
		delete(c.queued, seq)
		slog.Warn("waypoint command stalled", "session", q.Session, "seq", seq, "applied", c.applied)
		if c.stalled != nil {
			c.stalled(q)
		}
	}
}

// Reconcile fetches the backend's list and hands it to apply on the event
// loop. The session is rotated so later commands start a fresh ordering
// from the reconciled state.
func (c *SyncClient) Reconcile(apply func(wps []domain.Waypoint, err error)) {
	c.spawn(func(ctx context.Context) func() {
		wps, err := c.backend.Waypoints(ctx)
		return func() {
			if err == nil {
				c.rotate()
			}
			apply(wps, err)
		}
	})
}
