package usecases_test

import (
	"errors"
	"testing"
	"time"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/usecases"
)

func seqCmd(session string, seq uint64) domain.Command {
	return domain.Command{Session: session, Seq: seq, Op: domain.OpAdd, Point: domain.GeoPoint{Lat: float64(seq)}}
}

func TestCommandLog_InOrder(t *testing.T) {
	l := usecases.NewCommandLog(8, 0)

	for seq := uint64(1); seq <= 3; seq++ {
		adm, ready, err := l.Admit(seqCmd("s1", seq))
		if err != nil {
			t.Fatalf("seq %d: unexpected error: %v", seq, err)
		}
		if adm != usecases.AdmitReady || len(ready) != 1 || ready[0].Seq != seq {
			t.Fatalf("seq %d: expected ready [%d], got %v %v", seq, seq, adm, ready)
		}
	}
	if got := l.Applied("s1"); got != 3 {
		t.Errorf("expected applied 3, got %d", got)
	}
}

func TestCommandLog_OutOfOrderReleasedInSeqOrder(t *testing.T) {
	l := usecases.NewCommandLog(8, 0)

	if adm, _, _ := l.Admit(seqCmd("s1", 3)); adm != usecases.AdmitBuffered {
		t.Fatalf("expected seq 3 buffered, got %v", adm)
	}
	if adm, _, _ := l.Admit(seqCmd("s1", 2)); adm != usecases.AdmitBuffered {
		t.Fatalf("expected seq 2 buffered, got %v", adm)
	}
	if got := l.Pending("s1"); got != 2 {
		t.Errorf("expected 2 pending, got %d", got)
	}

	adm, ready, err := l.Admit(seqCmd("s1", 1))
	if err != nil || adm != usecases.AdmitReady {
		t.Fatalf("expected seq 1 ready, got %v %v", adm, err)
	}
	if len(ready) != 3 {
		t.Fatalf("expected 3 released commands, got %d", len(ready))
	}
	for i, c := range ready {
		if c.Seq != uint64(i+1) {
			t.Errorf("position %d: expected seq %d, got %d", i, i+1, c.Seq)
		}
	}
	if l.Pending("s1") != 0 {
		t.Error("expected nothing pending after release")
	}
}

func TestCommandLog_Duplicates(t *testing.T) {
	l := usecases.NewCommandLog(8, 0)
	l.Admit(seqCmd("s1", 1))
	l.Admit(seqCmd("s1", 3))

	if adm, _, _ := l.Admit(seqCmd("s1", 1)); adm != usecases.AdmitDuplicate {
		t.Errorf("expected applied seq to be duplicate, got %v", adm)
	}
	if adm, _, _ := l.Admit(seqCmd("s1", 3)); adm != usecases.AdmitDuplicate {
		t.Errorf("expected buffered seq to be duplicate, got %v", adm)
	}
}

func TestCommandLog_SessionsIndependent(t *testing.T) {
	l := usecases.NewCommandLog(8, 0)
	l.Admit(seqCmd("a", 1))
	l.Admit(seqCmd("a", 2))

	adm, ready, _ := l.Admit(seqCmd("b", 1))
	if adm != usecases.AdmitReady || len(ready) != 1 {
		t.Fatalf("expected fresh session to start at 1, got %v", adm)
	}
	if l.Applied("a") != 2 || l.Applied("b") != 1 {
		t.Errorf("unexpected applied counters a=%d b=%d", l.Applied("a"), l.Applied("b"))
	}
}

func TestCommandLog_GapTooLarge(t *testing.T) {
	l := usecases.NewCommandLog(4, 0)
	_, _, err := l.Admit(seqCmd("s1", 50))
	if !errors.Is(err, domain.ErrCommandGap) {
		t.Fatalf("expected ErrCommandGap, got %v", err)
	}
}

func TestCommandLog_Unsequenced(t *testing.T) {
	l := usecases.NewCommandLog(4, 0)
	cmd := domain.Command{Op: domain.OpClear}
	adm, ready, err := l.Admit(cmd)
	if err != nil || adm != usecases.AdmitReady || len(ready) != 1 {
		t.Fatalf("expected unsequenced command ready, got %v %v %v", adm, ready, err)
	}
	// A second identical command is not a duplicate without a seq.
	if adm, _, _ := l.Admit(cmd); adm != usecases.AdmitReady {
		t.Errorf("expected ready again, got %v", adm)
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCommandLog_IdleSessionExpires(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := usecases.NewCommandLog(8, time.Hour).WithClock(clock.now)

	for seq := uint64(1); seq <= 3; seq++ {
		if _, _, err := l.Admit(seqCmd("s1", seq)); err != nil {
			t.Fatal(err)
		}
	}
	clock.advance(2 * time.Hour)

	for seq := uint64(4); seq <= 6; seq++ {
		adm, ready, err := l.Admit(seqCmd("s1", seq))
		if !errors.Is(err, domain.ErrUnknownSession) {
			t.Fatalf("seq %d: expected ErrUnknownSession, got %v %v", seq, adm, err)
		}
		if len(ready) != 0 {
			t.Errorf("seq %d: nothing may be released, got %v", seq, ready)
		}
	}
	if !l.Expired("s1") || l.Applied("s1") != 0 || l.Pending("s1") != 0 {
		t.Errorf("expected s1 expired with no state, applied=%d pending=%d", l.Applied("s1"), l.Pending("s1"))
	}

	// Other sessions are unaffected.
	if adm, _, err := l.Admit(seqCmd("s2", 1)); err != nil || adm != usecases.AdmitReady {
		t.Errorf("expected new session to start normally, got %v %v", adm, err)
	}
}

func TestCommandLog_ActiveSessionKept(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := usecases.NewCommandLog(8, time.Hour).WithClock(clock.now)

	for seq := uint64(1); seq <= 4; seq++ {
		if _, _, err := l.Admit(seqCmd("s1", seq)); err != nil {
			t.Fatalf("seq %d: %v", seq, err)
		}
		clock.advance(50 * time.Minute)
	}
	if l.Expired("s1") || l.Applied("s1") != 4 {
		t.Errorf("active session must not expire, applied=%d", l.Applied("s1"))
	}
}

func TestCommandLog_ExpiredSessionForgottenEventually(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := usecases.NewCommandLog(8, time.Hour).WithClock(clock.now)

	l.Admit(seqCmd("s1", 1))
	clock.advance(2 * time.Hour)
	l.Admit(seqCmd("other", 1))
	if !l.Expired("s1") {
		t.Fatal("expected s1 expired")
	}

	clock.advance(25 * time.Hour)
	l.Admit(seqCmd("other", 2))
	if l.Expired("s1") {
		t.Error("expected the expired marker to be dropped after retention")
	}
}

// A session never seen before may legitimately start with a later seq.
func TestCommandLog_UnknownSessionBuffersEarlySeq(t *testing.T) {
	l := usecases.NewCommandLog(8, time.Hour)

	adm, _, err := l.Admit(seqCmd("fresh", 2))
	if err != nil || adm != usecases.AdmitBuffered {
		t.Fatalf("expected buffered, got %v %v", adm, err)
	}
	if l.Expired("fresh") {
		t.Error("a new session is not expired")
	}
}
