package generation

import (
	"math"
	"strings"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
)

// ScorerConfig holds the heuristics behind quality scoring. The values are
// tuned by playtesting, not derived.
type ScorerConfig struct {
	MinQuality       int
	FunPopulation    int64
	FunBalance       int64
	FunTrust         float64
	SmallEffectRatio float64
	CategoryKeywords map[game.Category][]string
	IntensityWords   []string
	DomainKeywords   []string
}

func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		MinQuality:       60,
		FunPopulation:    50_000,
		FunBalance:       2_000_000,
		FunTrust:         15,
		SmallEffectRatio: 0.1,
		CategoryKeywords: map[game.Category][]string{
			game.CategoryCrisis:      {"outage", "breach", "failure", "down", "crash", "incident", "attack", "emergency", "crisis"},
			game.CategoryOpportunity: {"opportunity", "investor", "funding", "partnership", "deal", "offer", "grant"},
			game.CategoryTechnical:   {"bug", "latency", "upgrade", "migration", "kernel", "deploy", "architecture", "scaling"},
			game.CategoryMarket:      {"market", "competitor", "pricing", "demand", "customers", "launch", "trend"},
			game.CategoryRegulatory:  {"regulation", "audit", "compliance", "law", "gdpr", "fine", "regulator"},
			game.CategorySocial:      {"community", "press", "social", "viral", "reputation", "employees", "public"},
		},
		IntensityWords: []string{"catastrophic", "massive", "devastating", "enormous", "huge", "apocalyptic"},
		DomainKeywords: DefaultValidatorConfig().DomainKeywords,
	}
}

type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer { return &Scorer{cfg: cfg} }

func (s *Scorer) MinQuality() int { return s.cfg.MinQuality }

// Score computes the four sub-scores for ev against snap and their rounded
// unweighted mean.
func (s *Scorer) Score(ev game.GeneratedEvent, snap game.Snapshot) game.QualityScore {
	q := game.QualityScore{
		Coherence:     s.coherence(ev, snap),
		Balance:       s.balance(ev, snap),
		Entertainment: s.entertainment(ev, snap),
		Educational:   s.educational(ev),
	}
	q.Overall = int(math.Round(float64(q.Coherence+q.Balance+q.Entertainment+q.Educational) / 4))
	return q
}

func (s *Scorer) coherence(ev game.GeneratedEvent, snap game.Snapshot) int {
	score := 40
	narrative := strings.ToLower(ev.Title + " " + ev.Description)
	if countKeywords(narrative, s.cfg.CategoryKeywords[ev.Category]) > 0 {
		score += 35
	}

	var anyNeg, anyPos bool
	for _, c := range ev.Choices {
		p, b, t := c.Effects.NetChange(snap)
		if p < 0 || b < 0 || t < 0 {
			anyNeg = true
		}
		if p > 0 || b > 0 || t > 0 {
			anyPos = true
		}
	}
	switch ev.Category {
	case game.CategoryCrisis, game.CategoryRegulatory:
		if anyNeg {
			score += 25
		}
	case game.CategoryOpportunity, game.CategoryMarket:
		if anyPos {
			score += 25
		}
	default:
		score += 25
	}

	if s.maxMagnitude(ev, snap) < s.cfg.SmallEffectRatio {
		score -= 10 * countKeywords(narrative, s.cfg.IntensityWords)
	}
	return clampScore(score)
}

func (s *Scorer) balance(ev game.GeneratedEvent, snap game.Snapshot) int {
	score := 100
	if len(ev.Choices) == 0 {
		return 0
	}
	var lo, hi int64 = math.MaxInt64, math.MinInt64
	escape, upside := false, false
	for _, c := range ev.Choices {
		p, b, t := c.Effects.NetChange(snap)
		if s.cfg.FunPopulation > 0 && absInt64(p) > s.cfg.FunPopulation {
			score -= 10
		}
		if s.cfg.FunBalance > 0 && absInt64(b) > s.cfg.FunBalance {
			score -= 10
		}
		if s.cfg.FunTrust > 0 && math.Abs(t) > s.cfg.FunTrust {
			score -= 10
		}
		lo, hi = min(lo, b), max(hi, b)
		if !c.Effects.DrivesNegative(snap) {
			escape = true
		}
		if p > 0 || b > 0 || t > 0 || len(c.Effects.AddCapabilities) > 0 {
			upside = true
		}
	}
	if s.cfg.FunBalance > 0 && hi-lo > 2*s.cfg.FunBalance {
		score -= 15
	}
	if !escape {
		score -= 40
	}
	if !upside {
		score -= 20
	}
	return clampScore(score)
}

func (s *Scorer) entertainment(ev game.GeneratedEvent, snap game.Snapshot) int {
	var score int
	switch n := len(strings.TrimSpace(ev.Description)); {
	case n < 20:
		score = 10
	case n < 80:
		score = 40
	case n <= 600:
		score = 80
	default:
		score = 60
	}
	switch len(ev.Choices) {
	case 3:
		score += 10
	case 4:
		score += 15
	}
	if s.hasTradeOff(ev, snap) {
		score += 10
	} else {
		score -= 10
	}
	return clampScore(score)
}

func (s *Scorer) educational(ev game.GeneratedEvent) int {
	score := min(70, 15*countKeywords(allText(ev), s.cfg.DomainKeywords))
	for _, c := range ev.Choices {
		if c.Effects.ChangesCapabilities() {
			score += 30
			break
		}
	}
	return clampScore(score)
}

// hasTradeOff reports whether some choice is better than another on one
// weighted axis and worse on a different one.
func (s *Scorer) hasTradeOff(ev game.GeneratedEvent, snap game.Snapshot) bool {
	vecs := make([][3]float64, len(ev.Choices))
	for i, c := range ev.Choices {
		vecs[i] = s.weighted(c.Effects, snap)
	}
	for i := range vecs {
		for j := range vecs {
			if i == j {
				continue
			}
			better, worse := false, false
			for k := 0; k < 3; k++ {
				if vecs[i][k] > vecs[j][k] {
					better = true
				}
				if vecs[i][k] < vecs[j][k] {
					worse = true
				}
			}
			if better && worse {
				return true
			}
		}
	}
	return false
}

func (s *Scorer) weighted(e game.EffectDelta, snap game.Snapshot) [3]float64 {
	p, b, t := e.NetChange(snap)
	return [3]float64{
		ratio(float64(p), float64(s.cfg.FunPopulation)),
		ratio(float64(b), float64(s.cfg.FunBalance)),
		ratio(t, s.cfg.FunTrust),
	}
}

// maxMagnitude is the largest absolute weighted effect over all choices.
func (s *Scorer) maxMagnitude(ev game.GeneratedEvent, snap game.Snapshot) float64 {
	m := 0.0
	for _, c := range ev.Choices {
		for _, v := range s.weighted(c.Effects, snap) {
			m = math.Max(m, math.Abs(v))
		}
	}
	return m
}

func ratio(v, scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return v / scale
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
