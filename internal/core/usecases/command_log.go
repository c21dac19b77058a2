package usecases

import (
	"fmt"
	"time"

	"github.com/navboard/navboard/internal/core/domain"
)

// Admission is the outcome of offering a command to the CommandLog.
type Admission int

const (
	// AdmitReady means the command, plus any buffered successors it
	// unblocked, must be applied now in the returned order.
	AdmitReady Admission = iota
	// AdmitBuffered means the command arrived early and waits for a gap.
	AdmitBuffered
	// AdmitDuplicate means the seq was already applied or is already buffered.
	AdmitDuplicate
)

type sessionLog struct {
	next    uint64
	pending map[uint64]domain.Command
	seen    time.Time
}

// expiredRetention is how long an idle-pruned session id is remembered so
// its late commands are rejected instead of starting over at seq 1.
const expiredRetention = 24 * time.Hour

// CommandLog releases sequenced commands in seq order per session. Each
// session starts expecting seq 1. It is not safe for concurrent use; the
// owning service serialises access.
type CommandLog struct {
	sessions   map[string]*sessionLog
	expired    map[string]time.Time
	maxPending int
	idleTTL    time.Duration
	now        func() time.Time
}

// NewCommandLog creates a CommandLog that buffers at most maxPending early
// commands per session and forgets sessions idle for longer than idleTTL.
func NewCommandLog(maxPending int, idleTTL time.Duration) *CommandLog {
	if maxPending <= 0 {
		maxPending = 64
	}
	if idleTTL <= 0 {
		idleTTL = time.Hour
	}
	return &CommandLog{
		sessions:   make(map[string]*sessionLog),
		expired:    make(map[string]time.Time),
		maxPending: maxPending,
		idleTTL:    idleTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for idle expiry.
func (l *CommandLog) WithClock(now func() time.Time) *CommandLog {
	l.now = now
	return l
}

// Admit offers cmd to the log. Unsequenced commands are always ready.
// Commands of a session that was expired for idleness fail with
// domain.ErrUnknownSession.
func (l *CommandLog) Admit(cmd domain.Command) (Admission, []domain.Command, error) {
	if !cmd.Sequenced() {
		return AdmitReady, []domain.Command{cmd}, nil
	}

	now := l.now()
	l.prune(now)

	s, ok := l.sessions[cmd.Session]
	if !ok {
		if _, gone := l.expired[cmd.Session]; gone {
			return AdmitBuffered, nil, fmt.Errorf("session %s seq %d: %w",
				cmd.Session, cmd.Seq, domain.ErrUnknownSession)
		}
		s = &sessionLog{next: 1, pending: make(map[uint64]domain.Command)}
		l.sessions[cmd.Session] = s
	}
	s.seen = now

	if cmd.Seq < s.next {
		return AdmitDuplicate, nil, nil
	}
	if _, queued := s.pending[cmd.Seq]; queued {
		return AdmitDuplicate, nil, nil
	}

	if cmd.Seq > s.next {
		if cmd.Seq-s.next > uint64(l.maxPending) || len(s.pending) >= l.maxPending {
			return AdmitBuffered, nil, fmt.Errorf("session %s seq %d (expecting %d): %w",
				cmd.Session, cmd.Seq, s.next, domain.ErrCommandGap)
		}
		s.pending[cmd.Seq] = cmd
		return AdmitBuffered, nil, nil
	}

	ready := []domain.Command{cmd}
	s.next++
	for {
		c, ok := s.pending[s.next]
		if !ok {
			break
		}
		delete(s.pending, s.next)
		ready = append(ready, c)
		s.next++
	}
	return AdmitReady, ready, nil
}

// Applied returns the highest seq released for session, or 0.
func (l *CommandLog) Applied(session string) uint64 {
	s, ok := l.sessions[session]
	if !ok {
		return 0
	}
	return s.next - 1
}

// Pending returns the number of buffered commands for session.
func (l *CommandLog) Pending(session string) int {
	s, ok := l.sessions[session]
	if !ok {
		return 0
	}
	return len(s.pending)
}

// Expired reports whether session was forgotten for idleness.
func (l *CommandLog) Expired(session string) bool {
	_, ok := l.expired[session]
	return ok
}

func (l *CommandLog) prune(now time.Time) {
	for id, s := range l.sessions {
		if now.Sub(s.seen) > l.idleTTL {
			delete(l.sessions, id)
			l.expired[id] = now
		}
	}
	retention := max(expiredRetention, l.idleTTL)
	for id, at := range l.expired {
		if now.Sub(at) > retention {
			delete(l.expired, id)
		}
	}
}
