package generation

import (
	"strings"
	"testing"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/pkg/pointers"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(logger.NewNop(), DefaultValidatorConfig())
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func containsPrefix(list []string, prefix, substr string) bool {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) && strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func TestValidatePayloadAcceptsGoodEvent(t *testing.T) {
	v := newTestValidator(t)
	ev, verdict := v.ValidatePayload(mustJSON(t, goodEvent()), testSnapshot())
	if !verdict.Valid {
		t.Fatalf("good event rejected: %v", verdict.Errors)
	}
	if verdict.Repaired != nil {
		t.Fatalf("good event should not need repair")
	}
	if ev.Title != goodEvent().Title || len(ev.Choices) != 3 {
		t.Fatalf("decoded event: got=%+v", ev)
	}
}

func TestValidatePayloadMissingFieldFailsStructure(t *testing.T) {
	v := newTestValidator(t)
	raw := []byte(`{"category":"crisis","description":"Servers are down in every region.","choices":[{"text":"a","effects":{"balance":-10}},{"text":"b","effects":{"trust":1}}]}`)
	_, verdict := v.ValidatePayload(raw, testSnapshot())
	if verdict.Valid {
		t.Fatalf("payload without title accepted")
	}
	if !containsPrefix(verdict.Errors, "structure:", "title") {
		t.Fatalf("want structure error naming title, got=%v", verdict.Errors)
	}
}

func TestValidatePayloadRejectsUnknownEffectKey(t *testing.T) {
	v := newTestValidator(t)
	raw := []byte(`{"category":"market","title":"t","description":"cloud demand spikes","choices":[{"text":"a","effects":{"gold":5}},{"text":"b","effects":{"trust":1}}]}`)
	_, verdict := v.ValidatePayload(raw, testSnapshot())
	if verdict.Valid || !containsPrefix(verdict.Errors, "structure:", "gold") {
		t.Fatalf("unknown effect key: got=%v", verdict.Errors)
	}
}

func TestValidatePayloadNotJSON(t *testing.T) {
	v := newTestValidator(t)
	_, verdict := v.ValidatePayload([]byte(`{"title":`), testSnapshot())
	if verdict.Valid || !containsPrefix(verdict.Errors, "structure:", "not valid JSON") {
		t.Fatalf("got=%v", verdict.Errors)
	}
}

func TestValidateChoiceCountBounds(t *testing.T) {
	v := newTestValidator(t)
	ev := goodEvent()
	ev.Choices = ev.Choices[:1]
	verdict := v.Validate(ev, testSnapshot())
	if verdict.Valid || !containsPrefix(verdict.Errors, "structure:", "choices: 1 outside") {
		t.Fatalf("got=%v", verdict.Errors)
	}
}

func TestValidateNoEscape(t *testing.T) {
	v := newTestValidator(t)
	snap := testSnapshot()
	snap.Balance = 100_000
	ev := goodEvent()
	for i := range ev.Choices {
		ev.Choices[i].Effects.Balance = pointers.Int64(-200_000)
	}
	verdict := v.Validate(ev, snap)
	if verdict.Valid {
		t.Fatalf("no-escape event accepted")
	}
	if !containsPrefix(verdict.Errors, "balance:", "no escape") {
		t.Fatalf("want no escape error, got=%v", verdict.Errors)
	}
	if verdict.Repaired != nil {
		t.Fatalf("no-escape must not be auto-repaired")
	}
}

func TestValidateIndebtedGameKeepsEscape(t *testing.T) {
	v := newTestValidator(t)
	snap := testSnapshot()
	snap.Balance = -1000
	verdict := v.Validate(goodEvent(), snap)
	if !verdict.Valid {
		t.Fatalf("choice that leaves the debt unchanged is an escape: %v", verdict.Errors)
	}

	ev := goodEvent()
	ev.Choices[1].Effects.Balance = pointers.Int64(-50)
	verdict = v.Validate(ev, snap)
	if verdict.Valid || !containsPrefix(verdict.Errors, "balance:", "no escape") {
		t.Fatalf("every choice deepens the debt: got=%v", verdict.Errors)
	}
}

func TestValidateDisallowedWord(t *testing.T) {
	v := newTestValidator(t)
	ev := goodEvent()
	ev.Description += " A terrorist group claims responsibility."
	verdict := v.Validate(ev, testSnapshot())
	if verdict.Valid || !containsPrefix(verdict.Errors, "content:", "terrorist") {
		t.Fatalf("got=%v", verdict.Errors)
	}
	if verdict.Repaired != nil {
		t.Fatalf("content violations must not be auto-repaired")
	}
}

func TestValidateDisallowedWordInCompatibilityForm(t *testing.T) {
	v := newTestValidator(t)
	ev := goodEvent()
	ev.Description += " A \uff54\uff45\uff52\uff52\uff4f\uff52\uff49\uff53\uff54 cell is blamed."
	verdict := v.Validate(ev, testSnapshot())
	if verdict.Valid || !containsPrefix(verdict.Errors, "content:", "terrorist") {
		t.Fatalf("full-width spelling must be caught: got=%v", verdict.Errors)
	}
}

func TestValidateDuplicateChoiceText(t *testing.T) {
	v := newTestValidator(t)
	ev := goodEvent()
	ev.Choices[2].Text = "  fail over to the BACKUP region "
	verdict := v.Validate(ev, testSnapshot())
	if verdict.Valid || !containsPrefix(verdict.Errors, "content:", "duplicates choices[0]") {
		t.Fatalf("got=%v", verdict.Errors)
	}
}

func TestAutoRepairClampsToBound(t *testing.T) {
	v := newTestValidator(t)
	ev := goodEvent()
	ev.Choices[0].Effects.Balance = pointers.Int64(-9_000_000)
	ev.Choices[1].Effects.Trust = pointers.Float64(-60)
	verdict := v.Validate(ev, testSnapshot())
	if !verdict.Valid || verdict.Repaired == nil {
		t.Fatalf("want repaired valid verdict, got valid=%v errors=%v", verdict.Valid, verdict.Errors)
	}
	if got := *verdict.Repaired.Choices[0].Effects.Balance; got != -5_000_000 {
		t.Fatalf("balance clamp: want=-5000000 got=%d", got)
	}
	if got := *verdict.Repaired.Choices[1].Effects.Trust; got != -25 {
		t.Fatalf("trust clamp: want=-25 got=%v", got)
	}
	if *ev.Choices[0].Effects.Balance != -9_000_000 {
		t.Fatalf("repair mutated the input event")
	}
	if !containsPrefix(verdict.Warnings, "repair:", "choices[0].balance") {
		t.Fatalf("repair note missing: %v", verdict.Warnings)
	}
}

func TestAutoRepairMasksSoftWords(t *testing.T) {
	v := newTestValidator(t)
	ev := goodEvent()
	ev.Title = "Damn, the region is down"
	verdict := v.Validate(ev, testSnapshot())
	if !verdict.Valid || verdict.Repaired == nil {
		t.Fatalf("want repaired verdict, got=%+v", verdict)
	}
	if verdict.Repaired.Title != "****, the region is down" {
		t.Fatalf("masked title: got=%q", verdict.Repaired.Title)
	}
}

func TestValidateStatusChangeIsHard(t *testing.T) {
	v := newTestValidator(t)
	ev := goodEvent()
	st := game.StatusLostBankrupt
	ev.Choices[0].Effects.Status = &st
	verdict := v.Validate(ev, testSnapshot())
	if verdict.Valid || !containsPrefix(verdict.Errors, "balance:", "status") {
		t.Fatalf("got=%v", verdict.Errors)
	}
}

func TestValidateSpreadIsSoft(t *testing.T) {
	cfg := DefaultValidatorConfig()
	cfg.MaxBalanceSpread = 1_000_000
	v, err := NewValidator(logger.NewNop(), cfg)
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	verdict := v.Validate(goodEvent(), testSnapshot())
	if !verdict.Valid {
		t.Fatalf("spread must not reject: %v", verdict.Errors)
	}
	if !containsPrefix(verdict.Warnings, "balance:", "spread") {
		t.Fatalf("want spread warning, got=%v", verdict.Warnings)
	}
}
