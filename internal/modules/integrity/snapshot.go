package integrity

import (
	"fmt"
	"math"
	"strings"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
)

// ValidateSnapshot checks absolute bounds and cross-field rules. Every
// violated rule is reported, in a fixed order.
func ValidateSnapshot(s game.Snapshot, lim Limits) game.ValidationVerdict {
	var errs []string
	add := func(format string, args ...any) { errs = append(errs, fmt.Sprintf(format, args...)) }

	if strings.TrimSpace(s.GameID) == "" {
		add("gameId: required")
	}
	if s.Turn < 0 || s.Turn > lim.MaxTurn {
		add("turn: %d outside [0,%d]", s.Turn, lim.MaxTurn)
	}
	if s.Population < 0 || s.Population > lim.MaxPopulation {
		add("population: %d outside [0,%d]", s.Population, lim.MaxPopulation)
	}
	if s.Balance < lim.MinBalance || s.Balance > lim.MaxBalance {
		add("balance: %d outside [%d,%d]", s.Balance, lim.MinBalance, lim.MaxBalance)
	}
	if math.IsNaN(s.Trust) || s.Trust < 0 || s.Trust > lim.MaxTrust {
		add("trust: %v outside [0,%v]", s.Trust, lim.MaxTrust)
	}
	if len(s.Capabilities) > lim.MaxCapabilities {
		add("capabilities: %d entries exceed max %d", len(s.Capabilities), lim.MaxCapabilities)
	}
	seen := make(map[string]struct{}, len(s.Capabilities))
	for i, c := range s.Capabilities {
		switch {
		case strings.TrimSpace(c) == "":
			add("capabilities[%d]: empty tag", i)
		case len(c) > lim.MaxCapabilityLen:
			add("capabilities[%d]: tag longer than %d", i, lim.MaxCapabilityLen)
		}
		key := strings.TrimSpace(c)
		if _, dup := seen[key]; dup {
			add("capabilities[%d]: duplicate tag %q", i, c)
		}
		seen[key] = struct{}{}
	}
	if !s.Status.Valid() {
		add("status: unknown %q", s.Status)
	}
	if s.Difficulty != "" && !s.Difficulty.Valid() {
		add("difficulty: unknown %q", s.Difficulty)
	}
	if s.Capacity < 0 {
		add("capacity: %d is negative", s.Capacity)
	}
	if s.Capacity > 0 && lim.CapacityFactor > 0 && s.Population > lim.CapacityFactor*s.Capacity {
		add("population: %d exceeds %dx capacity %d", s.Population, lim.CapacityFactor, s.Capacity)
	}
	for _, st := range []struct {
		name string
		v    int
	}{{"profitStreak", s.ProfitStreak}, {"lossStreak", s.LossStreak}} {
		if st.v < 0 || st.v > lim.MaxStreak {
			add("%s: %d outside [0,%d]", st.name, st.v, lim.MaxStreak)
		} else if st.v > s.Turn {
			add("%s: %d exceeds turn %d", st.name, st.v, s.Turn)
		}
	}
	if s.ProfitStreak > 0 && s.LossStreak > 0 {
		add("streaks: profit and loss streaks cannot both be running")
	}
	return game.ValidationVerdict{Valid: len(errs) == 0, Errors: errs}
}
