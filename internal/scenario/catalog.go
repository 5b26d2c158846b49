// Package scenario holds the catalog of named historical periods used for
// replay trading.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Meet7773/ChronoStox/internal/ticker"
)

// ErrUnknownScenario is returned by Lookup for names not in the catalog.
var ErrUnknownScenario = errors.New("scenario: unknown scenario")

const dateLayout = "2006-01-02"

// Scenario is a named historical window with a suggested ticker.
type Scenario struct {
	Name          string    `json:"name"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DefaultTicker string    `json:"default_ticker"`
	Description   string    `json:"description"`
}

// Catalog is an ordered, read-only set of scenarios.
type Catalog struct {
	order  []string
	byName map[string]Scenario
}

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Builtin returns the stock scenarios in display order.
func Builtin() []Scenario {
	return []Scenario{
		{
			Name:          "2008 Financial Crisis",
			Start:         day("2007-10-01"),
			End:           day("2009-04-01"),
			DefaultTicker: "ICICIBANK.NS",
			Description:   "Trade through the credit crunch and global deleveraging shock.",
		},
		{
			Name:          "COVID-19 Crash",
			Start:         day("2020-01-01"),
			End:           day("2020-06-01"),
			DefaultTicker: "RELIANCE.NS",
			Description:   "Navigate the volatility during the early pandemic months.",
		},
		{
			Name:          "Dot-Com Bubble Aftermath",
			Start:         day("1999-01-01"),
			End:           day("2001-12-31"),
			DefaultTicker: "INFY.NS",
			Description:   "Experience the rollercoaster of early IT giants.",
		},
	}
}

// NewCatalog builds a catalog from entries. A later entry with the same
// name replaces the earlier one in place.
func NewCatalog(entries ...Scenario) *Catalog {
	c := &Catalog{byName: make(map[string]Scenario, len(entries))}
	for _, s := range entries {
		c.put(s)
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return NewCatalog(Builtin()...)
}

func (c *Catalog) put(s Scenario) {
	if _, ok := c.byName[s.Name]; !ok {
		c.order = append(c.order, s.Name)
	}
	c.byName[s.Name] = s
}

// Lookup returns the scenario called name.
func (c *Catalog) Lookup(name string) (Scenario, error) {
	s, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return s, nil
}

// Names lists scenario names in catalog order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// All lists scenarios in catalog order.
func (c *Catalog) All() []Scenario {
	out := make([]Scenario, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.byName[n])
	}
	return out
}

// Len returns the number of scenarios.
func (c *Catalog) Len() int { return len(c.order) }

// fileEntry is one scenario as written in YAML.
type fileEntry struct {
	Name          string `yaml:"name"`
	Start         string `yaml:"start"`
	End           string `yaml:"end"`
	DefaultTicker string `yaml:"default_ticker"`
	Description   string `yaml:"description"`
}

type fileConfig struct {
	Scenarios []fileEntry `yaml:"scenarios"`
}

// Load returns the built-in catalog extended by the YAML file at path.
// An empty path yields the built-ins. Any invalid entry rejects the file.
func Load(path string) (*Catalog, error) {
	c := Default()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios file: %w", err)
	}
	extra, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("scenarios file %s: %w", path, err)
	}
	for _, s := range extra {
		c.put(s)
	}
	return c, nil
}

// Parse decodes and validates a YAML scenarios document.
func Parse(raw []byte) ([]Scenario, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	out := make([]Scenario, 0, len(cfg.Scenarios))
	for i, e := range cfg.Scenarios {
		s, err := e.scenario()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (e fileEntry) scenario() (Scenario, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return Scenario{}, errors.New("name is required")
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(e.Start))
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: invalid start date %q", name, e.Start)
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(e.End))
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: invalid end date %q", name, e.End)
	}
	if end.Before(start) {
		return Scenario{}, fmt.Errorf("%s: end %s is before start %s", name, e.End, e.Start)
	}
	sym, err := ticker.Parse(e.DefaultTicker)
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", name, err)
	}
	return Scenario{
		Name:          name,
		Start:         start,
		End:           end,
		DefaultTicker: sym.Symbol,
		Description:   strings.TrimSpace(e.Description),
	}, nil
}
