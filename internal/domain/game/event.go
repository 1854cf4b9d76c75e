package game

type Category string

const (
	CategoryCrisis      Category = "crisis"
	CategoryOpportunity Category = "opportunity"
	CategoryTechnical   Category = "technical"
	CategoryMarket      Category = "market"
	CategoryRegulatory  Category = "regulatory"
	CategorySocial      Category = "social"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryCrisis, CategoryOpportunity, CategoryTechnical, CategoryMarket, CategoryRegulatory, CategorySocial:
		return true
	}
	return false
}

type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Eligibility is a conjunction of declarative conditions. Nil bounds and
// empty lists are unconstrained.
type Eligibility struct {
	MinTurn              *int         `json:"minTurn,omitempty" yaml:"minTurn,omitempty"`
	MaxTurn              *int         `json:"maxTurn,omitempty" yaml:"maxTurn,omitempty"`
	MinPopulation        *int64       `json:"minPopulation,omitempty" yaml:"minPopulation,omitempty"`
	MaxPopulation        *int64       `json:"maxPopulation,omitempty" yaml:"maxPopulation,omitempty"`
	MinBalance           *int64       `json:"minBalance,omitempty" yaml:"minBalance,omitempty"`
	MaxBalance           *int64       `json:"maxBalance,omitempty" yaml:"maxBalance,omitempty"`
	MinTrust             *float64     `json:"minTrust,omitempty" yaml:"minTrust,omitempty"`
	MaxTrust             *float64     `json:"maxTrust,omitempty" yaml:"maxTrust,omitempty"`
	RequiredCapabilities []string     `json:"requiredCapabilities,omitempty" yaml:"requiredCapabilities,omitempty"`
	ExcludedCapabilities []string     `json:"excludedCapabilities,omitempty" yaml:"excludedCapabilities,omitempty"`
	MinCapabilities      *int         `json:"minCapabilities,omitempty" yaml:"minCapabilities,omitempty"`
	MaxCapabilities      *int         `json:"maxCapabilities,omitempty" yaml:"maxCapabilities,omitempty"`
	CooldownTurns        int          `json:"cooldownTurns,omitempty" yaml:"cooldownTurns,omitempty"`
	Difficulties         []Difficulty `json:"difficulties,omitempty" yaml:"difficulties,omitempty"`
}

type Choice struct {
	ID         string      `json:"id" yaml:"id"`
	Text       string      `json:"text" yaml:"text"`
	Effects    EffectDelta `json:"effects" yaml:"effects"`
	ResultText string      `json:"resultText,omitempty" yaml:"resultText,omitempty"`
}

// EventDefinition is a static catalog entry. The catalog is loaded once and
// shared read-only for the life of the process.
type EventDefinition struct {
	ID          string       `json:"id" yaml:"id"`
	Category    Category     `json:"category" yaml:"category"`
	Severity    Severity     `json:"severity" yaml:"severity"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Eligibility Eligibility  `json:"eligibility" yaml:"eligibility"`
	Choices     []Choice     `json:"choices" yaml:"choices"`
	AutoEffect  *EffectDelta `json:"autoEffect,omitempty" yaml:"autoEffect,omitempty"`
	OneTime     bool         `json:"oneTime,omitempty" yaml:"oneTime,omitempty"`
	Priority    int          `json:"priority,omitempty" yaml:"priority,omitempty"`
	// Probability is a percentage in [0,100]. Nil means the configured base
	// trigger rate.
	Probability *int     `json:"probability,omitempty" yaml:"probability,omitempty"`
	Dynamic     bool     `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// EventState is the per (game, event) tracking record.
type EventState struct {
	GameID            string `json:"gameId"`
	EventID           string `json:"eventId"`
	TriggerCount      int    `json:"triggerCount"`
	LastTriggeredTurn int    `json:"lastTriggeredTurn"`
	CooldownRemaining int    `json:"cooldownRemaining"`
	Active            bool   `json:"active"`
	Completed         bool   `json:"completed"`
	SelectedChoice    *int   `json:"selectedChoice,omitempty"`
}

// GeneratedEvent is the dynamic counterpart of EventDefinition. Transient.
type GeneratedEvent struct {
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Choices     []Choice `json:"choices"`
	Tags        []string `json:"tags,omitempty"`
}

func (g GeneratedEvent) Clone() GeneratedEvent {
	out := g
	out.Tags = append([]string(nil), g.Tags...)
	out.Choices = make([]Choice, len(g.Choices))
	for i, c := range g.Choices {
		out.Choices[i] = c
		out.Choices[i].Effects = c.Effects.clone()
	}
	return out
}

func (d EffectDelta) clone() EffectDelta {
	out := d
	out.Population = clonePtr(d.Population)
	out.Balance = clonePtr(d.Balance)
	out.Trust = clonePtr(d.Trust)
	out.PopulationMultiplier = clonePtr(d.PopulationMultiplier)
	out.BalanceMultiplier = clonePtr(d.BalanceMultiplier)
	out.TrustMultiplier = clonePtr(d.TrustMultiplier)
	out.Status = clonePtr(d.Status)
	out.AddCapabilities = append([]string(nil), d.AddCapabilities...)
	out.RemoveCapabilities = append([]string(nil), d.RemoveCapabilities...)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
