package generation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/unicode/norm"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

// ValidatorConfig holds the structure, balance and content thresholds for
// generated events.
type ValidatorConfig struct {
	MinChoices           int
	MaxChoices           int
	MaxPopulationEffect  int64
	MaxBalanceEffect     int64
	MaxTrustEffect       float64
	MinMultiplier        float64
	MaxMultiplier        float64
	MaxCapabilityChanges int
	MaxBalanceSpread     int64
	BlockedWords         []string
	MaskedWords          []string
	DomainKeywords       []string
}

func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MinChoices:           2,
		MaxChoices:           4,
		MaxPopulationEffect:  100_000,
		MaxBalanceEffect:     5_000_000,
		MaxTrustEffect:       25,
		MinMultiplier:        0.5,
		MaxMultiplier:        2.0,
		MaxCapabilityChanges: 3,
		MaxBalanceSpread:     8_000_000,
		BlockedWords:         []string{"nazi", "genocide", "terrorist", "suicide"},
		MaskedWords:          []string{"damn", "hell", "crap"},
		DomainKeywords: []string{
			"server", "cloud", "region", "latency", "uptime", "outage", "database",
			"storage", "compute", "cluster", "customer", "sla", "security", "compliance",
			"network", "datacenter", "capacity", "migration", "api", "kubernetes",
		},
	}
}

type issueKind int

const (
	kindStructure issueKind = iota
	kindRange
	kindBalance
	kindContent
)

type issue struct {
	kind issueKind
	msg  string
}

// Validator runs the structure, balance and content stages. All three
// always run so the verdict lists every problem.
type Validator struct {
	log     *logger.Logger
	cfg     ValidatorConfig
	schema  *jsonschema.Schema
	blocked []wordPattern
	masked  []wordPattern
}

type wordPattern struct {
	word string
	re   *regexp.Regexp
}

func compileWords(words []string) []wordPattern {
	out := make([]wordPattern, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" {
			continue
		}
		out = append(out, wordPattern{word: w, re: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)})
	}
	return out
}

func NewValidator(log *logger.Logger, cfg ValidatorConfig) (*Validator, error) {
	schema, err := compileEventSchema()
	if err != nil {
		return nil, err
	}
	return &Validator{
		log:     log.With("component", "EventValidator"),
		cfg:     cfg,
		schema:  schema,
		blocked: compileWords(cfg.BlockedWords),
		masked:  compileWords(cfg.MaskedWords),
	}, nil
}

func (v *Validator) Config() ValidatorConfig { return v.cfg }

// ValidatePayload checks raw JSON against the event schema, decodes it as far
// as possible and runs the typed stages on the result.
func (v *Validator) ValidatePayload(raw []byte, snap game.Snapshot) (game.GeneratedEvent, game.ValidationVerdict) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		msg := fmt.Sprintf("structure: payload is not valid JSON: %v", err)
		return game.GeneratedEvent{}, game.ValidationVerdict{Valid: false, Errors: []string{msg}}
	}
	var ev game.GeneratedEvent
	// A type mismatch stops only the offending field; the rest still decodes.
	_ = json.Unmarshal(raw, &ev)

	var schemaIssues []issue
	for _, m := range schemaMessages(v.schema, payload) {
		schemaIssues = append(schemaIssues, issue{kind: kindStructure, msg: m})
	}
	return ev, v.validate(ev, snap, schemaIssues, true)
}

// Validate runs the typed stages on an already decoded event.
func (v *Validator) Validate(ev game.GeneratedEvent, snap game.Snapshot) game.ValidationVerdict {
	return v.validate(ev, snap, nil, true)
}

func (v *Validator) validate(ev game.GeneratedEvent, snap game.Snapshot, schemaIssues []issue, allowRepair bool) game.ValidationVerdict {
	var hard []issue
	var warnings []string

	if len(schemaIssues) > 0 {
		hard = append(hard, schemaIssues...)
	} else {
		hard = append(hard, v.structure(ev)...)
	}
	bh, bw := v.balance(ev, snap)
	hard = append(hard, bh...)
	warnings = append(warnings, bw...)
	ch, cw, masked := v.content(ev)
	hard = append(hard, ch...)
	warnings = append(warnings, cw...)

	verdict := game.ValidationVerdict{Valid: len(hard) == 0, Errors: messages(hard), Warnings: warnings}

	rangeOnly := len(hard) > 0
	for _, is := range hard {
		if is.kind != kindRange {
			rangeOnly = false
			break
		}
	}
	if !allowRepair || !(rangeOnly || (len(hard) == 0 && masked)) {
		return verdict
	}

	repaired, notes := v.repair(ev)
	again := v.validate(repaired, snap, nil, false)
	if !again.Valid {
		v.log.Debug("auto-repair did not produce a valid event", "errors", again.Errors)
		return verdict
	}
	again.Warnings = append(append(warnings, notes...), again.Warnings...)
	again.Warnings = dedupe(again.Warnings)
	again.Repaired = &repaired
	return again
}

func (v *Validator) structure(ev game.GeneratedEvent) []issue {
	var out []issue
	add := func(format string, args ...any) {
		out = append(out, issue{kind: kindStructure, msg: "structure: " + fmt.Sprintf(format, args...)})
	}
	if !ev.Category.Valid() {
		add("category: unknown %q", ev.Category)
	}
	if strings.TrimSpace(ev.Title) == "" {
		add("title: required")
	}
	if strings.TrimSpace(ev.Description) == "" {
		add("description: required")
	}
	if n := len(ev.Choices); n < v.cfg.MinChoices || n > v.cfg.MaxChoices {
		add("choices: %d outside [%d,%d]", n, v.cfg.MinChoices, v.cfg.MaxChoices)
	}
	for i, c := range ev.Choices {
		if strings.TrimSpace(c.Text) == "" {
			add("choices[%d].text: required", i)
		}
		if c.Effects.IsEmpty() {
			add("choices[%d].effects: required", i)
		}
	}
	return out
}

func (v *Validator) balance(ev game.GeneratedEvent, snap game.Snapshot) (hard []issue, warnings []string) {
	rangeErr := func(format string, args ...any) {
		hard = append(hard, issue{kind: kindRange, msg: "balance: " + fmt.Sprintf(format, args...)})
	}
	for i, c := range ev.Choices {
		e := &c.Effects
		if e.Population != nil && absInt64(*e.Population) > v.cfg.MaxPopulationEffect {
			rangeErr("choices[%d].population: %d outside ±%d", i, *e.Population, v.cfg.MaxPopulationEffect)
		}
		if e.Balance != nil && absInt64(*e.Balance) > v.cfg.MaxBalanceEffect {
			rangeErr("choices[%d].balance: %d outside ±%d", i, *e.Balance, v.cfg.MaxBalanceEffect)
		}
		if e.Trust != nil && (math.IsNaN(*e.Trust) || math.Abs(*e.Trust) > v.cfg.MaxTrustEffect) {
			rangeErr("choices[%d].trust: %v outside ±%v", i, *e.Trust, v.cfg.MaxTrustEffect)
		}
		for _, f := range multipliers(e) {
			name, m := f.name, f.val
			if m != nil && (math.IsNaN(*m) || *m < v.cfg.MinMultiplier || *m > v.cfg.MaxMultiplier) {
				rangeErr("choices[%d].%s: %v outside [%v,%v]", i, name, *m, v.cfg.MinMultiplier, v.cfg.MaxMultiplier)
			}
		}
		if n := len(e.AddCapabilities) + len(e.RemoveCapabilities); n > v.cfg.MaxCapabilityChanges {
			rangeErr("choices[%d].capabilities: %d changes, max %d", i, n, v.cfg.MaxCapabilityChanges)
		}
		if e.Status != nil {
			hard = append(hard, issue{kind: kindBalance, msg: fmt.Sprintf("balance: choices[%d].status: generated events cannot change game status", i)})
		}
	}

	if len(ev.Choices) > 0 {
		escape := false
		for _, c := range ev.Choices {
			if !c.Effects.DrivesNegative(snap) {
				escape = true
				break
			}
		}
		if !escape {
			hard = append(hard, issue{kind: kindBalance, msg: "balance: no escape: every choice drives a resource negative"})
		}
	}

	if len(ev.Choices) > 1 && v.cfg.MaxBalanceSpread > 0 {
		lo, hi := int64(math.MaxInt64), int64(math.MinInt64)
		for _, c := range ev.Choices {
			_, b, _ := c.Effects.NetChange(snap)
			lo, hi = min(lo, b), max(hi, b)
		}
		if hi-lo > v.cfg.MaxBalanceSpread {
			warnings = append(warnings, fmt.Sprintf("balance: balance spread between choices is %d, above %d", hi-lo, v.cfg.MaxBalanceSpread))
		}
	}
	return hard, warnings
}

func (v *Validator) content(ev game.GeneratedEvent) (hard []issue, warnings []string, masked bool) {
	for _, f := range textFields(ev) {
		for _, w := range v.blocked {
			if w.re.MatchString(f.text) {
				hard = append(hard, issue{kind: kindContent, msg: fmt.Sprintf("content: disallowed word %q in %s", w.word, f.name)})
			}
		}
		for _, w := range v.masked {
			if w.re.MatchString(f.text) {
				masked = true
				warnings = append(warnings, fmt.Sprintf("content: masked word %q in %s", w.word, f.name))
			}
		}
	}
	if len(v.cfg.DomainKeywords) > 0 && countKeywords(allText(ev), v.cfg.DomainKeywords) == 0 {
		warnings = append(warnings, "content: no domain keywords")
	}
	seen := map[string]int{}
	for i, c := range ev.Choices {
		key := strings.ToLower(strings.Join(strings.Fields(c.Text), " "))
		if key == "" {
			continue
		}
		if j, dup := seen[key]; dup {
			hard = append(hard, issue{kind: kindContent, msg: fmt.Sprintf("content: choices[%d].text duplicates choices[%d]", i, j)})
			continue
		}
		seen[key] = i
	}
	return hard, warnings, masked
}

// repair clamps out-of-range effects to their bounds and masks soft-listed
// words. It never touches structure or blocked content.
func (v *Validator) repair(ev game.GeneratedEvent) (game.GeneratedEvent, []string) {
	out := ev.Clone()
	var notes []string
	note := func(format string, args ...any) { notes = append(notes, "repair: "+fmt.Sprintf(format, args...)) }

	for i := range out.Choices {
		e := &out.Choices[i].Effects
		if e.Population != nil {
			if c := clampInt64(*e.Population, v.cfg.MaxPopulationEffect); c != *e.Population {
				note("choices[%d].population clamped to %d", i, c)
				*e.Population = c
			}
		}
		if e.Balance != nil {
			if c := clampInt64(*e.Balance, v.cfg.MaxBalanceEffect); c != *e.Balance {
				note("choices[%d].balance clamped to %d", i, c)
				*e.Balance = c
			}
		}
		if e.Trust != nil {
			if c := clampFloat(*e.Trust, -v.cfg.MaxTrustEffect, v.cfg.MaxTrustEffect); c != *e.Trust {
				note("choices[%d].trust clamped to %v", i, c)
				*e.Trust = c
			}
		}
		for _, f := range multipliers(e) {
			name, m := f.name, f.val
			if m == nil {
				continue
			}
			if c := clampFloat(*m, v.cfg.MinMultiplier, v.cfg.MaxMultiplier); c != *m {
				note("choices[%d].%s clamped to %v", i, name, c)
				*m = c
			}
		}
		if n := len(e.AddCapabilities) + len(e.RemoveCapabilities); n > v.cfg.MaxCapabilityChanges {
			keep := v.cfg.MaxCapabilityChanges
			if len(e.AddCapabilities) > keep {
				e.AddCapabilities = e.AddCapabilities[:keep]
			}
			rest := keep - len(e.AddCapabilities)
			if len(e.RemoveCapabilities) > rest {
				e.RemoveCapabilities = e.RemoveCapabilities[:rest]
			}
			note("choices[%d] capability changes truncated to %d", i, keep)
		}
	}

	mask := func(s string) string {
		s = norm.NFKC.String(s)
		for _, w := range v.masked {
			s = w.re.ReplaceAllStringFunc(s, func(m string) string { return strings.Repeat("*", len(m)) })
		}
		return s
	}
	out.Title = mask(out.Title)
	out.Description = mask(out.Description)
	for i := range out.Choices {
		out.Choices[i].Text = mask(out.Choices[i].Text)
		out.Choices[i].ResultText = mask(out.Choices[i].ResultText)
	}
	return out, notes
}

type multiplierField struct {
	name string
	val  *float64
}

func multipliers(e *game.EffectDelta) []multiplierField {
	return []multiplierField{
		{"populationMultiplier", e.PopulationMultiplier},
		{"balanceMultiplier", e.BalanceMultiplier},
		{"trustMultiplier", e.TrustMultiplier},
	}
}

type textField struct {
	name string
	text string
}

// textFields returns every player-visible string in NFKC form so that
// compatibility characters cannot hide a listed word.
func textFields(ev game.GeneratedEvent) []textField {
	out := []textField{{"title", norm.NFKC.String(ev.Title)}, {"description", norm.NFKC.String(ev.Description)}}
	for i, c := range ev.Choices {
		out = append(out, textField{fmt.Sprintf("choices[%d].text", i), norm.NFKC.String(c.Text)})
		if c.ResultText != "" {
			out = append(out, textField{fmt.Sprintf("choices[%d].resultText", i), norm.NFKC.String(c.ResultText)})
		}
	}
	return out
}

func allText(ev game.GeneratedEvent) string {
	var b strings.Builder
	for _, f := range textFields(ev) {
		b.WriteString(f.text)
		b.WriteByte(' ')
	}
	return b.String()
}

// countKeywords returns how many distinct keywords occur in text.
func countKeywords(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(lower, k) {
			n++
		}
	}
	return n
}

func messages(issues []issue) []string {
	if len(issues) == 0 {
		return nil
	}
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.msg
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func clampInt64(v, bound int64) int64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	return math.Max(lo, math.Min(hi, v))
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
