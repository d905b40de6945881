package brackets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../cmd/templategen -out templates.yaml

//go:embed templates.yaml
var embeddedTemplates []byte

// TemplateSource provides the raw playerCount -> pattern table.
type TemplateSource interface {
	Name() string
	Load() (map[int]string, error)
}

type templateFile struct {
	Templates map[int]string `yaml:"templates"`
}

// EmbeddedTemplates serves the table compiled into the binary.
type EmbeddedTemplates struct{}

func (EmbeddedTemplates) Name() string { return "embedded templates.yaml" }

func (EmbeddedTemplates) Load() (map[int]string, error) {
	return decodeTemplates(embeddedTemplates)
}

// FileTemplates reads the table from a YAML file on disk.
type FileTemplates struct {
	Path string
}

func (f FileTemplates) Name() string { return f.Path }

func (f FileTemplates) Load() (map[int]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	return decodeTemplates(data)
}

func decodeTemplates(data []byte) (map[int]string, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(file.Templates) == 0 {
		return nil, errors.New("no templates defined")
	}
	return file.Templates, nil
}

// TemplateCache holds the parsed template table for the life of the process.
// It is built once at startup and shared by reference; the table is populated at
// most once and never mutated afterwards, so concurrent reads need no locking.
type TemplateCache struct {
	source TemplateSource

	once  sync.Once
	table map[int]Pattern
	err   error
}

func NewTemplateCache(source TemplateSource) *TemplateCache {
	return &TemplateCache{source: source}
}

// Load populates the cache. A failed load is remembered: every later call,
// and every lookup, reports the same TemplateLoadError.
func (c *TemplateCache) Load() error {
	c.once.Do(func() {
		c.table, c.err = c.build()
	})
	return c.err
}

func (c *TemplateCache) build() (map[int]Pattern, error) {
	if c.source == nil {
		return nil, &TemplateLoadError{Source: "<nil>", Err: errors.New("no template source configured")}
	}
	raw, err := c.source.Load()
	if err != nil {
		return nil, &TemplateLoadError{Source: c.source.Name(), Err: err}
	}
	table := make(map[int]Pattern, len(raw))
	for playerCount, display := range raw {
		p, err := ParsePattern(display)
		if err != nil {
			return nil, &TemplateLoadError{Source: c.source.Name(), Err: fmt.Errorf("template %d: %w", playerCount, err)}
		}
		if err := checkTemplate(playerCount, p); err != nil {
			return nil, &TemplateLoadError{Source: c.source.Name(), Err: err}
		}
		table[playerCount] = p
	}
	return table, nil
}

// Lookup returns the template for playerCount; ok is false when the table has no entry.
func (c *TemplateCache) Lookup(playerCount int) (Pattern, bool, error) {
	if err := c.Load(); err != nil {
		return Pattern{}, false, err
	}
	p, ok := c.table[playerCount]
	return p, ok, nil
}

// PlayerCounts lists the loaded table keys in ascending order.
func (c *TemplateCache) PlayerCounts() ([]int, error) {
	if err := c.Load(); err != nil {
		return nil, err
	}
	counts := make([]int, 0, len(c.table))
	for n := range c.table {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	return counts, nil
}

// checkTemplate enforces the structural invariants of one table row.
func checkTemplate(playerCount int, p Pattern) error {
	if err := ValidatePlayerCount(playerCount); err != nil {
		return fmt.Errorf("template key: %w", err)
	}
	size := BracketSize(playerCount)
	if p.Len() != size/2 {
		return fmt.Errorf("template %d: pattern %q has %d slots, want %d", playerCount, p.String(), p.Len(), size/2)
	}
	if p.Entrants() != playerCount {
		return fmt.Errorf("template %d: pattern %q seats %d entrants (byes %d + 2*matches %d)",
			playerCount, p.String(), p.Entrants(), p.Byes(), p.PreliminaryMatches())
	}
	return nil
}

// LayoutTemplate derives the pattern for playerCount: byes = bracketSize - playerCount,
// the top half takes the larger share and every half pushes its byes toward the
// outer edge of the draw (top half upward, bottom half downward).
// cmd/templategen uses it to produce templates.yaml.
func LayoutTemplate(playerCount int) (Pattern, error) {
	if err := ValidatePlayerCount(playerCount); err != nil {
		return Pattern{}, err
	}
	size := BracketSize(playerCount)
	half := size / 4
	byes := size - playerCount
	slots := append(spreadByes(half, (byes+1)/2, true), spreadByes(half, byes/2, false)...)
	return NewPattern(slots), nil
}

func spreadByes(n, byes int, towardTop bool) []Slot {
	if n == 1 {
		return []Slot{Slot(byes)}
	}
	half := n / 2
	major, minor := (byes+1)/2, byes/2
	if towardTop {
		return append(spreadByes(half, major, true), spreadByes(half, minor, true)...)
	}
	return append(spreadByes(half, minor, false), spreadByes(half, major, false)...)
}
