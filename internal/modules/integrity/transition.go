package integrity

import (
	"fmt"
	"math"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
)

// ValidateTransition checks a before/after pair for the same game. Both sides
// must also pass snapshot validation; their violations are prefixed.
func ValidateTransition(before, after game.Snapshot, lim Limits) game.ValidationVerdict {
	var errs []string
	add := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	for _, e := range ValidateSnapshot(before, lim).Errors {
		errs = append(errs, "before: "+e)
	}
	for _, e := range ValidateSnapshot(after, lim).Errors {
		errs = append(errs, "after: "+e)
	}

	if before.GameID != after.GameID {
		add("gameId: transition crosses games (%q -> %q)", before.GameID, after.GameID)
	}
	switch d := after.Turn - before.Turn; {
	case d < 0:
		add("turn: regressed from %d to %d", before.Turn, after.Turn)
	case d > lim.MaxTurnAdvance:
		add("turn: advanced %d turns, max %d", d, lim.MaxTurnAdvance)
	}
	if d := absInt64(after.Population - before.Population); d > lim.MaxPopulationStep {
		add("population: changed by %d, max %d per step", d, lim.MaxPopulationStep)
	}
	if d := absInt64(after.Balance - before.Balance); d > lim.MaxBalanceStep {
		add("balance: changed by %d, max %d per step", d, lim.MaxBalanceStep)
	}
	if d := math.Abs(after.Trust - before.Trust); d > lim.MaxTrustStep {
		add("trust: changed by %.2f, max %.2f per step", d, lim.MaxTrustStep)
	}
	if churn := capabilityChurn(before.Capabilities, after.Capabilities); churn > lim.MaxCapabilityStep {
		add("capabilities: %d added or removed, max %d per step", churn, lim.MaxCapabilityStep)
	}
	if before.Status.Terminal() && after.Status != before.Status {
		add("status: %s is terminal and cannot become %s", before.Status, after.Status)
	}
	if !before.UpdatedAt.IsZero() && !after.UpdatedAt.IsZero() && after.UpdatedAt.Before(before.UpdatedAt) {
		add("updatedAt: %s precedes %s", after.UpdatedAt.Format("2006-01-02T15:04:05.000Z07:00"), before.UpdatedAt.Format("2006-01-02T15:04:05.000Z07:00"))
	}
	return game.ValidationVerdict{Valid: len(errs) == 0, Errors: errs}
}

func capabilityChurn(before, after []string) int {
	b := make(map[string]struct{}, len(before))
	for _, c := range before {
		b[c] = struct{}{}
	}
	a := make(map[string]struct{}, len(after))
	for _, c := range after {
		a[c] = struct{}{}
	}
	n := 0
	for c := range a {
		if _, ok := b[c]; !ok {
			n++
		}
	}
	for c := range b {
		if _, ok := a[c]; !ok {
			n++
		}
	}
	return n
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
