package game

import (
	"math"
	"strings"
)

// EffectDelta is a closed set of typed adjustments. Nil fields mean "no
// change". Additive fields apply after multiplicative ones.
type EffectDelta struct {
	Population           *int64   `json:"population,omitempty" yaml:"population,omitempty"`
	Balance              *int64   `json:"balance,omitempty" yaml:"balance,omitempty"`
	Trust                *float64 `json:"trust,omitempty" yaml:"trust,omitempty"`
	PopulationMultiplier *float64 `json:"populationMultiplier,omitempty" yaml:"populationMultiplier,omitempty"`
	BalanceMultiplier    *float64 `json:"balanceMultiplier,omitempty" yaml:"balanceMultiplier,omitempty"`
	TrustMultiplier      *float64 `json:"trustMultiplier,omitempty" yaml:"trustMultiplier,omitempty"`
	AddCapabilities      []string `json:"addCapabilities,omitempty" yaml:"addCapabilities,omitempty"`
	RemoveCapabilities   []string `json:"removeCapabilities,omitempty" yaml:"removeCapabilities,omitempty"`
	Status               *Status  `json:"status,omitempty" yaml:"status,omitempty"`
}

func (d EffectDelta) IsEmpty() bool {
	return d.Population == nil && d.Balance == nil && d.Trust == nil &&
		d.PopulationMultiplier == nil && d.BalanceMultiplier == nil && d.TrustMultiplier == nil &&
		len(d.AddCapabilities) == 0 && len(d.RemoveCapabilities) == 0 && d.Status == nil
}

func (d EffectDelta) ChangesCapabilities() bool {
	return len(d.AddCapabilities) > 0 || len(d.RemoveCapabilities) > 0
}

// Apply projects the delta onto s and returns the result without clamping,
// so callers can detect values driven out of range.
func (d EffectDelta) Apply(s Snapshot) Snapshot {
	out := s.Clone()
	if d.PopulationMultiplier != nil {
		out.Population = int64(math.Round(float64(out.Population) * *d.PopulationMultiplier))
	}
	if d.BalanceMultiplier != nil {
		out.Balance = int64(math.Round(float64(out.Balance) * *d.BalanceMultiplier))
	}
	if d.TrustMultiplier != nil {
		out.Trust = out.Trust * *d.TrustMultiplier
	}
	if d.Population != nil {
		out.Population += *d.Population
	}
	if d.Balance != nil {
		out.Balance += *d.Balance
	}
	if d.Trust != nil {
		out.Trust += *d.Trust
	}
	if len(d.RemoveCapabilities) > 0 {
		drop := make(map[string]struct{}, len(d.RemoveCapabilities))
		for _, c := range d.RemoveCapabilities {
			drop[strings.TrimSpace(c)] = struct{}{}
		}
		kept := out.Capabilities[:0]
		for _, c := range out.Capabilities {
			if _, ok := drop[strings.TrimSpace(c)]; !ok {
				kept = append(kept, c)
			}
		}
		out.Capabilities = kept
	}
	if len(d.AddCapabilities) > 0 {
		out.Capabilities = NormalizeTags(append(out.Capabilities, d.AddCapabilities...))
	}
	if d.Status != nil && !s.Status.Terminal() {
		out.Status = *d.Status
	}
	return out
}

// NetChange reports the signed change to population, balance and trust that
// applying d to s would cause.
func (d EffectDelta) NetChange(s Snapshot) (population int64, balance int64, trust float64) {
	p := d.Apply(s)
	return p.Population - s.Population, p.Balance - s.Balance, p.Trust - s.Trust
}

// DrivesNegative reports whether applying d to s takes a resource from zero
// or above to below zero, or lowers a resource that was already negative.
func (d EffectDelta) DrivesNegative(s Snapshot) bool {
	p := d.Apply(s)
	return drivenNegative(s.Population, p.Population) ||
		drivenNegative(s.Balance, p.Balance) ||
		drivenNegative(s.Trust, p.Trust)
}

func drivenNegative[T int64 | float64](before, after T) bool {
	if after >= 0 {
		return false
	}
	return before >= 0 || after < before
}
