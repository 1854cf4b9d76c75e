// Package catalog loads the static event catalog. The catalog is read once at
// startup and shared read-only; entries keep their file order, which the
// trigger engine uses to break priority ties.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

type Catalog struct {
	events []game.EventDefinition
	byID   map[string]int
}

type document struct {
	Events []game.EventDefinition `yaml:"events"`
}

// New validates defs and builds a catalog preserving their order.
func New(defs []game.EventDefinition) (*Catalog, error) {
	c := &Catalog{
		events: make([]game.EventDefinition, 0, len(defs)),
		byID:   make(map[string]int, len(defs)),
	}
	var problems []string
	for i, d := range defs {
		d.ID = strings.TrimSpace(d.ID)
		if errs := validateDefinition(d); len(errs) > 0 {
			for _, e := range errs {
				problems = append(problems, fmt.Sprintf("events[%d] %q: %s", i, d.ID, e))
			}
			continue
		}
		if _, dup := c.byID[d.ID]; dup {
			problems = append(problems, fmt.Sprintf("events[%d]: duplicate id %q", i, d.ID))
			continue
		}
		c.byID[d.ID] = len(c.events)
		c.events = append(c.events, d)
	}
	if len(problems) > 0 {
		return nil, apperrors.InvalidArgument("catalog.New", problems...)
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Events)
}

func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Events returns the entries in catalog order. Callers must not modify them.
func (c *Catalog) Events() []game.EventDefinition {
	if c == nil {
		return nil
	}
	return c.events
}

func (c *Catalog) Get(id string) (game.EventDefinition, bool) {
	if c == nil {
		return game.EventDefinition{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return game.EventDefinition{}, false
	}
	return c.events[i], true
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.events)
}

func validateDefinition(d game.EventDefinition) []string {
	var errs []string
	if d.ID == "" {
		errs = append(errs, "id is required")
	}
	if !d.Category.Valid() {
		errs = append(errs, fmt.Sprintf("unknown category %q", d.Category))
	}
	if d.Probability != nil && (*d.Probability < 0 || *d.Probability > 100) {
		errs = append(errs, fmt.Sprintf("probability %d outside [0,100]", *d.Probability))
	}
	if len(d.Choices) == 0 && d.AutoEffect == nil {
		errs = append(errs, "needs at least one choice or an autoEffect")
	}
	seen := map[string]bool{}
	for i, ch := range d.Choices {
		if strings.TrimSpace(ch.Text) == "" {
			errs = append(errs, fmt.Sprintf("choices[%d] text is required", i))
		}
		if ch.ID != "" {
			if seen[ch.ID] {
				errs = append(errs, fmt.Sprintf("choices[%d] duplicate id %q", i, ch.ID))
			}
			seen[ch.ID] = true
		}
	}
	el := d.Eligibility
	if el.MinTurn != nil && el.MaxTurn != nil && *el.MinTurn > *el.MaxTurn {
		errs = append(errs, "minTurn > maxTurn")
	}
	if el.CooldownTurns < 0 {
		errs = append(errs, "cooldownTurns must not be negative")
	}
	for _, diff := range el.Difficulties {
		if !diff.Valid() {
			errs = append(errs, fmt.Sprintf("unknown difficulty %q", diff))
		}
	}
	return errs
}
