package generation

import (
	"fmt"
	"strings"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
)

// BuildPrompt renders the completion prompt for one snapshot. hint may be
// nil; when set, its category and title steer the generated event.
func BuildPrompt(snap game.Snapshot, hint *game.EventDefinition, cfg ValidatorConfig) string {
	var b strings.Builder
	b.WriteString("You write events for a cloud infrastructure company simulation.\n")
	b.WriteString("Respond with a single JSON object and nothing else.\n\n")

	b.WriteString("Company state:\n")
	fmt.Fprintf(&b, "- turn: %d\n", snap.Turn)
	fmt.Fprintf(&b, "- customers: %d\n", snap.Population)
	fmt.Fprintf(&b, "- balance: %d\n", snap.Balance)
	fmt.Fprintf(&b, "- trust: %.1f/100\n", snap.Trust)
	if caps := snap.CapabilitySet(); len(caps) > 0 {
		fmt.Fprintf(&b, "- services: %s\n", strings.Join(caps, ", "))
	} else {
		b.WriteString("- services: none yet\n")
	}
	if snap.Difficulty != "" {
		fmt.Fprintf(&b, "- difficulty: %s\n", snap.Difficulty)
	}

	if hint != nil {
		fmt.Fprintf(&b, "\nThe event must be in category %q and inspired by %q.\n", hint.Category, hint.Title)
	}

	b.WriteString("\nJSON shape:\n")
	b.WriteString(`{"category": "crisis|opportunity|technical|market|regulatory|social", "title": "...", "description": "...", "choices": [{"id": "a", "text": "...", "resultText": "...", "effects": {"population": 0, "balance": 0, "trust": 0}}]}`)
	b.WriteString("\n\nRules:\n")
	fmt.Fprintf(&b, "- between %d and %d choices, each with distinct text and at least one effect\n", cfg.MinChoices, cfg.MaxChoices)
	fmt.Fprintf(&b, "- population effect within ±%d, balance within ±%d, trust within ±%g\n",
		cfg.MaxPopulationEffect, cfg.MaxBalanceEffect, cfg.MaxTrustEffect)
	fmt.Fprintf(&b, "- multipliers between %g and %g\n", cfg.MinMultiplier, cfg.MaxMultiplier)
	b.WriteString("- at least one choice must leave customers, balance and trust non-negative\n")
	b.WriteString("- choices should trade one resource against another\n")
	b.WriteString("- do not change the game status\n")
	return b.String()
}
