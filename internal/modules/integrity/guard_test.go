package integrity

import (
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestGuard(clock *fakeClock, rate RateConfig) *Guard {
	h, _ := NewHasher([]byte("test"))
	return NewGuard(logger.NewNop(), DefaultLimits(), rate, DefaultAnomalyConfig(), h, WithGuardClock(clock.Now))
}

func TestCheckRequestMinInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := newTestGuard(clock, RateConfig{MinInterval: 100 * time.Millisecond})
	if err := g.CheckRequest("g-1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	clock.Advance(10 * time.Millisecond)
	err := g.CheckRequest("g-1")
	if !errors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("second request: want=RateLimited got=%v", err)
	}
	if err := g.CheckRequest("g-2"); err != nil {
		t.Fatalf("other game must not share limits: %v", err)
	}
	clock.Advance(100 * time.Millisecond)
	if err := g.CheckRequest("g-1"); err != nil {
		t.Fatalf("after interval: %v", err)
	}
}

func TestCheckRequestBurstAndMinute(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := newTestGuard(clock, RateConfig{BurstWindow: time.Second, BurstMax: 3, PerMinute: 5})
	for i := 0; i < 3; i++ {
		if err := g.CheckRequest("g"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if err := g.CheckRequest("g"); !errors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("burst: want=RateLimited got=%v", err)
	}
	clock.Advance(2 * time.Second)
	for i := 0; i < 2; i++ {
		if err := g.CheckRequest("g"); err != nil {
			t.Fatalf("post-burst request %d: %v", i, err)
		}
	}
	clock.Advance(2 * time.Second)
	if err := g.CheckRequest("g"); !errors.Is(err, apperrors.ErrRateLimited) {
		t.Fatalf("per-minute: want=RateLimited got=%v", err)
	}
	clock.Advance(time.Minute)
	if err := g.CheckRequest("g"); err != nil {
		t.Fatalf("after window: %v", err)
	}
}

func TestRegressionsBlockGame(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := newTestGuard(clock, RateConfig{})
	g.ObserveTurn("g", 10)
	for i := 0; i < 2; i++ {
		g.ObserveTurn("g", 5)
		g.ObserveTurn("g", 10)
	}
	if rep := g.Report("g"); rep.Blocked || rep.Regressions != 2 {
		t.Fatalf("after 2 regressions: %+v", rep)
	}
	rep := g.ObserveTurn("g", 1)
	if !rep.Blocked || rep.Regressions != 3 {
		t.Fatalf("after 3 regressions: %+v", rep)
	}
	err := g.CheckRequest("g")
	if !errors.Is(err, apperrors.ErrSessionBlocked) {
		t.Fatalf("blocked game: want=SessionBlocked got=%v", err)
	}
	g.Reset("g")
	if err := g.CheckRequest("g"); err != nil {
		t.Fatalf("after reset: %v", err)
	}
}

func TestBlockSurvivesIdleSweep(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := newTestGuard(clock, RateConfig{})
	g.ObserveTurn("g", 10)
	for i := 0; i < 3; i++ {
		g.ObserveTurn("g", 1)
		g.ObserveTurn("g", 10)
	}
	if !g.Report("g").Blocked {
		t.Fatalf("game should be blocked")
	}
	clock.Advance(25 * time.Hour)
	if n := g.games.Sweep(); n != 1 {
		t.Fatalf("swept: want=1 got=%d", n)
	}
	if err := g.CheckRequest("g"); !errors.Is(err, apperrors.ErrSessionBlocked) {
		t.Fatalf("after sweep: want=SessionBlocked got=%v", err)
	}
	if !g.Report("g").Blocked {
		t.Fatalf("report after sweep must still show the block")
	}
}

func TestBlockKeepsFirstReason(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := newTestGuard(clock, RateConfig{})
	if !g.Block("g", "entropy exhausted") {
		t.Fatalf("first block should be new")
	}
	if g.Block("g", "3 turn regressions") {
		t.Fatalf("second block should not be new")
	}
	if reason, ok := g.BlockReason("g"); !ok || reason != "entropy exhausted" {
		t.Fatalf("reason: ok=%v got=%q", ok, reason)
	}
	err := g.CheckRequest("g")
	if reasons := apperrors.ReasonsOf(err); len(reasons) != 1 || reasons[0] != "entropy exhausted" {
		t.Fatalf("denial reasons: %v", reasons)
	}
	if got := g.BlockedGames(); len(got) != 1 || got[0] != "g" {
		t.Fatalf("blocked games: %v", got)
	}
}

func TestIdenticalChoiceStreakIsAdvisory(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := newTestGuard(clock, RateConfig{})
	var rep Report
	for i := 0; i < 5; i++ {
		rep = g.ObserveChoice("g", 0)
	}
	if len(rep.Signals) != 1 || rep.Signals[0] != SignalIdenticalChoices {
		t.Fatalf("signals: got=%v", rep.Signals)
	}
	if rep.Blocked || rep.Score == 0 {
		t.Fatalf("streak should score but not block: %+v", rep)
	}
	if err := g.CheckRequest("g"); err != nil {
		t.Fatalf("advisory signal must not reject: %v", err)
	}
}

func TestRapidTurnAdvances(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := newTestGuard(clock, RateConfig{})
	var rep Report
	for turn := 0; turn <= 32; turn++ {
		rep = g.ObserveTurn("g", turn)
		clock.Advance(500 * time.Millisecond)
	}
	found := false
	for _, s := range rep.Signals {
		if s == SignalRapidTurns {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s in %v", SignalRapidTurns, rep.Signals)
	}
}

func TestReportUnknownGame(t *testing.T) {
	g := newTestGuard(&fakeClock{t: time.Unix(0, 0)}, RateConfig{})
	rep := g.Report("nobody")
	if rep.Blocked || rep.Score != 0 || len(rep.Signals) != 0 {
		t.Fatalf("unknown game: %+v", rep)
	}
}
