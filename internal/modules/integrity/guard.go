package integrity

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/modules/tracking"
	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

// Signal names reported by the guard.
const (
	SignalIdenticalChoices = "identical_choice_streak"
	SignalRapidTurns       = "rapid_turn_advance"
	SignalTurnRegression   = "turn_regression"
)

// Report is the advisory anomaly state of one game. Only Blocked has an
// enforcement effect.
type Report struct {
	GameID      string   `json:"gameId"`
	Score       int      `json:"score"`
	Signals     []string `json:"signals"`
	Regressions int      `json:"regressions"`
	Blocked     bool     `json:"blocked"`
}

type activity struct {
	requests     []time.Time
	advances     []time.Time
	lastTurn     int
	haveTurn     bool
	lastChoice   int
	choiceStreak int
	regressions  int
	signals      map[string]int
}

func newActivity(string) *activity {
	return &activity{lastChoice: -1, signals: map[string]int{}}
}

// Guard owns per-game request and behaviour tracking. Activity records are
// swept when idle; blocks are kept apart from them and are never swept.
type Guard struct {
	log     *logger.Logger
	limits  Limits
	rate    RateConfig
	anomaly AnomalyConfig
	hasher  *Hasher
	games   *tracking.Store[activity]
	now     func() time.Time
	keep    time.Duration

	blockMu sync.RWMutex
	blocked map[string]string
}

type GuardOption func(*Guard)

func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

func WithRetention(d time.Duration) GuardOption {
	return func(g *Guard) { g.keep = d }
}

func NewGuard(log *logger.Logger, limits Limits, rate RateConfig, anomaly AnomalyConfig, hasher *Hasher, opts ...GuardOption) *Guard {
	g := &Guard{
		log:     log.With("component", "IntegrityGuard"),
		limits:  limits,
		rate:    rate,
		anomaly: anomaly,
		hasher:  hasher,
		now:     time.Now,
		keep:    tracking.DefaultRetention,
		blocked: make(map[string]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.games = tracking.New("integrity", g.log, newActivity,
		tracking.WithRetention[activity](g.keep), tracking.WithClock[activity](g.now))
	return g
}

// StartSweeper evicts idle game records until ctx is done.
func (g *Guard) StartSweeper(ctx context.Context, interval time.Duration) {
	g.games.StartSweeper(ctx, interval)
}

func (g *Guard) Limits() Limits { return g.limits }

func (g *Guard) ValidateSnapshot(s game.Snapshot) game.ValidationVerdict {
	return ValidateSnapshot(s, g.limits)
}

func (g *Guard) ValidateTransition(before, after game.Snapshot) game.ValidationVerdict {
	return ValidateTransition(before, after, g.limits)
}

func (g *Guard) ComputeHash(s game.Snapshot) (string, error) { return g.hasher.ComputeHash(s) }

func (g *Guard) VerifyHash(s game.Snapshot, expected string) (bool, error) {
	return g.hasher.VerifyHash(s, expected)
}

// CheckRequest admits or rejects one request for gameID. Rejected requests are
// not counted against the windows.
func (g *Guard) CheckRequest(gameID string) error {
	const op = "integrity.CheckRequest"
	if gameID == "" {
		return apperrors.InvalidArgument(op, "gameId required")
	}
	if reason, ok := g.BlockReason(gameID); ok {
		return apperrors.New(apperrors.CodeSessionBlocked, op, nil, reason)
	}
	return g.games.Do(gameID, func(a *activity) error {
		now := g.now()
		a.requests = trimBefore(a.requests, now.Add(-time.Minute))
		if n := len(a.requests); n > 0 && g.rate.MinInterval > 0 {
			if gap := now.Sub(a.requests[n-1]); gap < g.rate.MinInterval {
				return apperrors.RateLimited(op, fmt.Sprintf("%s since last request, min %s", gap, g.rate.MinInterval))
			}
		}
		if g.rate.PerMinute > 0 && len(a.requests) >= g.rate.PerMinute {
			return apperrors.RateLimited(op, fmt.Sprintf("%d requests in the last minute", len(a.requests)))
		}
		if g.rate.BurstMax > 0 && g.rate.BurstWindow > 0 {
			if burst := countSince(a.requests, now.Add(-g.rate.BurstWindow)); burst >= g.rate.BurstMax {
				return apperrors.RateLimited(op, fmt.Sprintf("%d requests within %s", burst, g.rate.BurstWindow))
			}
		}
		a.requests = append(a.requests, now)
		return nil
	})
}

// ObserveTurn records the turn reported for a game. A regression is counted
// and blocks the game once the threshold is reached.
func (g *Guard) ObserveTurn(gameID string, turn int) Report {
	var rep Report
	_ = g.games.Do(gameID, func(a *activity) error {
		now := g.now()
		switch {
		case !a.haveTurn:
		case turn < a.lastTurn:
			a.regressions++
			a.signals[SignalTurnRegression]++
			if g.anomaly.RegressionBlockThreshold > 0 && a.regressions >= g.anomaly.RegressionBlockThreshold {
				g.Block(gameID, fmt.Sprintf("%d turn regressions", a.regressions))
			}
		case turn > a.lastTurn:
			a.advances = append(trimBefore(a.advances, now.Add(-time.Minute)), now)
			if g.anomaly.MaxTurnAdvancesPerMinute > 0 && len(a.advances) > g.anomaly.MaxTurnAdvancesPerMinute {
				a.signals[SignalRapidTurns]++
			}
		}
		a.lastTurn, a.haveTurn = turn, true
		rep = g.report(gameID, a)
		return nil
	})
	return rep
}

// ObserveChoice records the selected choice index for a resolved event.
func (g *Guard) ObserveChoice(gameID string, index int) Report {
	var rep Report
	_ = g.games.Do(gameID, func(a *activity) error {
		if index == a.lastChoice {
			a.choiceStreak++
		} else {
			a.lastChoice, a.choiceStreak = index, 1
		}
		if g.anomaly.IdenticalChoiceStreak > 0 && a.choiceStreak >= g.anomaly.IdenticalChoiceStreak {
			a.signals[SignalIdenticalChoices]++
		}
		rep = g.report(gameID, a)
		return nil
	})
	return rep
}

// Block denies every later request for gameID. It reports whether the game
// was newly blocked; the first reason is kept.
func (g *Guard) Block(gameID, reason string) bool {
	if gameID == "" {
		return false
	}
	g.blockMu.Lock()
	defer g.blockMu.Unlock()
	if _, ok := g.blocked[gameID]; ok {
		return false
	}
	g.blocked[gameID] = reason
	g.log.Warn("game blocked", "game_id", gameID, "reason", reason)
	return true
}

// BlockReason reports whether gameID is blocked and why.
func (g *Guard) BlockReason(gameID string) (string, bool) {
	g.blockMu.RLock()
	defer g.blockMu.RUnlock()
	reason, ok := g.blocked[gameID]
	return reason, ok
}

// BlockedGames returns the blocked game ids in sorted order.
func (g *Guard) BlockedGames() []string {
	g.blockMu.RLock()
	out := make([]string, 0, len(g.blocked))
	for id := range g.blocked {
		out = append(out, id)
	}
	g.blockMu.RUnlock()
	sort.Strings(out)
	return out
}

// Report returns the current anomaly state without creating a record.
func (g *Guard) Report(gameID string) Report {
	rep := Report{GameID: gameID, Signals: []string{}}
	g.games.Peek(gameID, func(a *activity) { rep = g.report(gameID, a) })
	_, rep.Blocked = g.BlockReason(gameID)
	return rep
}

// Reset forgets everything tracked for gameID, including a block.
func (g *Guard) Reset(gameID string) {
	g.games.Delete(gameID)
	g.blockMu.Lock()
	delete(g.blocked, gameID)
	g.blockMu.Unlock()
}

func (g *Guard) report(gameID string, a *activity) Report {
	rep := Report{GameID: gameID, Regressions: a.regressions, Signals: []string{}}
	_, rep.Blocked = g.BlockReason(gameID)
	for _, name := range []string{SignalTurnRegression, SignalRapidTurns, SignalIdenticalChoices} {
		n := a.signals[name]
		if n == 0 {
			continue
		}
		rep.Signals = append(rep.Signals, name)
		rep.Score += n * signalWeight(name)
	}
	return rep
}

func signalWeight(name string) int {
	switch name {
	case SignalTurnRegression:
		return 50
	case SignalRapidTurns:
		return 20
	default:
		return 10
	}
}

func trimBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

func countSince(ts []time.Time, cutoff time.Time) int {
	n := 0
	for j := len(ts) - 1; j >= 0 && !ts[j].Before(cutoff); j-- {
		n++
	}
	return n
}
