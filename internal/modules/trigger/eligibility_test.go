package trigger

import (
	"testing"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/pkg/pointers"
)

func TestEligibleConditions(t *testing.T) {
	base := scenarioSnapshot()
	cases := []struct {
		name string
		el   game.Eligibility
		want bool
	}{
		{"unconstrained", game.Eligibility{}, true},
		{"turn window", game.Eligibility{MinTurn: pointers.Int(1), MaxTurn: pointers.Int(25)}, true},
		{"turn too early", game.Eligibility{MinTurn: pointers.Int(11)}, false},
		{"population min", game.Eligibility{MinPopulation: pointers.Int64(6000)}, false},
		{"balance max", game.Eligibility{MaxBalance: pointers.Int64(1_000_000)}, false},
		{"trust range", game.Eligibility{MinTrust: pointers.Float64(40), MaxTrust: pointers.Float64(60)}, true},
		{"required capability", game.Eligibility{RequiredCapabilities: []string{"EC2"}}, true},
		{"capability case differs", game.Eligibility{RequiredCapabilities: []string{"ec2"}}, false},
		{"excluded capability case differs", game.Eligibility{ExcludedCapabilities: []string{"ec2"}}, true},
		{"missing capability", game.Eligibility{RequiredCapabilities: []string{"S3"}}, false},
		{"excluded capability", game.Eligibility{ExcludedCapabilities: []string{"EC2"}}, false},
		{"capability count", game.Eligibility{MinCapabilities: pointers.Int(2)}, false},
		{"difficulty allowed", game.Eligibility{Difficulties: []game.Difficulty{game.DifficultyNormal}}, true},
		{"difficulty denied", game.Eligibility{Difficulties: []game.Difficulty{game.DifficultyHard}}, false},
	}
	for _, tc := range cases {
		d := game.EventDefinition{ID: "e", Eligibility: tc.el}
		got, reason := Eligible(d, base, nil)
		if got != tc.want {
			t.Fatalf("%s: want=%v got=%v (%s)", tc.name, tc.want, got, reason)
		}
		if !got && reason == "" {
			t.Fatalf("%s: ineligible without reason", tc.name)
		}
	}
}

func TestEligibleCooldownAndAbsentState(t *testing.T) {
	d := game.EventDefinition{ID: "e", Eligibility: game.Eligibility{CooldownTurns: 5}}
	snap := scenarioSnapshot()
	if ok, _ := Eligible(d, snap, nil); !ok {
		t.Fatalf("absent state means never triggered")
	}
	st := &game.EventState{TriggerCount: 1, LastTriggeredTurn: 8}
	if ok, _ := Eligible(d, snap, st); ok {
		t.Fatalf("2 turns since trigger is inside a 5 turn cooldown")
	}
	st.LastTriggeredTurn = 5
	if ok, _ := Eligible(d, snap, st); !ok {
		t.Fatalf("5 turns since trigger satisfies the cooldown")
	}
}
