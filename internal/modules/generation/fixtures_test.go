package generation

import (
	"encoding/json"
	"testing"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/pkg/pointers"
)

func testSnapshot() game.Snapshot {
	return game.Snapshot{
		GameID:       "g-1",
		Turn:         10,
		Population:   5000,
		Balance:      10_000_000,
		Trust:        50,
		Capabilities: []string{"EC2"},
		Status:       game.StatusActive,
		Difficulty:   game.DifficultyNormal,
	}
}

func goodEvent() game.GeneratedEvent {
	return game.GeneratedEvent{
		Category:    game.CategoryCrisis,
		Title:       "Region outage hits us-east",
		Description: "A power failure in the us-east region takes down compute and storage for thousands of customers. Your SLA is at risk and the press is watching every move.",
		Choices: []game.Choice{
			{ID: "a", Text: "Fail over to the backup region", Effects: game.EffectDelta{Balance: pointers.Int64(-1_500_000), Trust: pointers.Float64(5)}},
			{ID: "b", Text: "Wait for the datacenter to recover", Effects: game.EffectDelta{Population: pointers.Int64(-800), Trust: pointers.Float64(-10)}},
			{ID: "c", Text: "Offer SLA credits and go multi-region", Effects: game.EffectDelta{Balance: pointers.Int64(-800_000), Trust: pointers.Float64(8), AddCapabilities: []string{"MultiRegion"}}},
		},
	}
}

func lowQualityEvent() game.GeneratedEvent {
	return game.GeneratedEvent{
		Category:    game.CategoryCrisis,
		Title:       "Thing",
		Description: "Stuff happens.",
		Choices: []game.Choice{
			{Text: "Do one thing", Effects: game.EffectDelta{Balance: pointers.Int64(10)}},
			{Text: "Do another thing", Effects: game.EffectDelta{Balance: pointers.Int64(20)}},
		},
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}
