package trigger

import (
	"fmt"
	"slices"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
)

// Eligible evaluates def's predicate against snap and the game's tracking
// record for def (nil means never triggered). The reason names the first
// failed condition and is empty when eligible.
func Eligible(def game.EventDefinition, snap game.Snapshot, state *game.EventState) (bool, string) {
	el := def.Eligibility

	if def.OneTime && state != nil && state.Completed {
		return false, "one-time event already completed"
	}
	if el.MinTurn != nil && snap.Turn < *el.MinTurn {
		return false, fmt.Sprintf("turn %d < min %d", snap.Turn, *el.MinTurn)
	}
	if el.MaxTurn != nil && snap.Turn > *el.MaxTurn {
		return false, fmt.Sprintf("turn %d > max %d", snap.Turn, *el.MaxTurn)
	}
	if el.MinPopulation != nil && snap.Population < *el.MinPopulation {
		return false, "population below minimum"
	}
	if el.MaxPopulation != nil && snap.Population > *el.MaxPopulation {
		return false, "population above maximum"
	}
	if el.MinBalance != nil && snap.Balance < *el.MinBalance {
		return false, "balance below minimum"
	}
	if el.MaxBalance != nil && snap.Balance > *el.MaxBalance {
		return false, "balance above maximum"
	}
	if el.MinTrust != nil && snap.Trust < *el.MinTrust {
		return false, "trust below minimum"
	}
	if el.MaxTrust != nil && snap.Trust > *el.MaxTrust {
		return false, "trust above maximum"
	}
	for _, req := range el.RequiredCapabilities {
		if !snap.HasCapability(req) {
			return false, fmt.Sprintf("missing capability %s", req)
		}
	}
	for _, ex := range el.ExcludedCapabilities {
		if snap.HasCapability(ex) {
			return false, fmt.Sprintf("has excluded capability %s", ex)
		}
	}
	count := len(snap.CapabilitySet())
	if el.MinCapabilities != nil && count < *el.MinCapabilities {
		return false, "too few capabilities"
	}
	if el.MaxCapabilities != nil && count > *el.MaxCapabilities {
		return false, "too many capabilities"
	}
	if len(el.Difficulties) > 0 && !slices.Contains(el.Difficulties, snap.Difficulty) {
		return false, fmt.Sprintf("difficulty %q not allowed", snap.Difficulty)
	}
	if el.CooldownTurns > 0 && state != nil && state.TriggerCount > 0 {
		if since := snap.Turn - state.LastTriggeredTurn; since < el.CooldownTurns {
			return false, fmt.Sprintf("cooling down (%d of %d turns)", since, el.CooldownTurns)
		}
	}
	return true, ""
}
