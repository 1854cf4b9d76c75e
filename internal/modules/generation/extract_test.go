package generation

import (
	"encoding/json"
	"errors"
	"testing"

	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
)

func TestExtractJSONStripsFences(t *testing.T) {
	text := "Here you go:\n```json\n{\"title\": \"Outage\", \"choices\": []}\n```\nEnjoy!"
	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("extracted payload is not JSON: %v (%s)", err, raw)
	}
	if m["title"] != "Outage" {
		t.Fatalf("title: want=Outage got=%v", m["title"])
	}
}

func TestExtractJSONIgnoresBracesInStrings(t *testing.T) {
	text := `prefix {"description": "uses } and { and \" quotes", "n": {"x": 1}} trailing }`
	raw, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	want := `{"description": "uses } and { and \" quotes", "n": {"x": 1}}`
	if string(raw) != want {
		t.Fatalf("want=%s got=%s", want, raw)
	}
}

func TestExtractJSONSkipsUnbalancedPrefix(t *testing.T) {
	raw, err := ExtractJSON("{ broken\n" + `{"ok": true}`)
	if err != nil {
		t.Fatalf("ExtractJSON: %v", err)
	}
	if string(raw) != `{"ok": true}` {
		t.Fatalf("got=%s", raw)
	}
}

func TestExtractJSONNoPayload(t *testing.T) {
	for _, text := range []string{"", "no braces here", "{ never closed"} {
		_, err := ExtractJSON(text)
		if !errors.Is(err, apperrors.ErrNoStructuredPayload) {
			t.Fatalf("%q: want NoStructuredPayload got=%v", text, err)
		}
	}
}
