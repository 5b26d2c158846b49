package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogOrder(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{
		"2008 Financial Crisis",
		"COVID-19 Crash",
		"Dot-Com Bubble Aftermath",
	}, c.Names())
	assert.Equal(t, 3, c.Len())
}

func TestLookup(t *testing.T) {
	c := Default()

	s, err := c.Lookup("COVID-19 Crash")
	require.NoError(t, err)
	assert.Equal(t, "RELIANCE.NS", s.DefaultTicker)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), s.Start)
	assert.Equal(t, time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), s.End)

	_, err = c.Lookup("Tulip Mania")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestAllReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Name = "mutated"
	_, err := c.Lookup("2008 Financial Crisis")
	assert.NoError(t, err)
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	doc := `
scenarios:
  - name: Demonetisation
    start: 2016-11-01
    end: 2017-03-31
    default_ticker: hdfcbank.ns
    description: Cash crunch after the note ban.
  - name: COVID-19 Crash
    start: 2020-02-01
    end: 2020-05-01
    default_ticker: TCS.NS
    description: Narrower window.
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2008 Financial Crisis",
		"COVID-19 Crash",
		"Dot-Com Bubble Aftermath",
		"Demonetisation",
	}, c.Names())

	covid, err := c.Lookup("COVID-19 Crash")
	require.NoError(t, err)
	assert.Equal(t, "TCS.NS", covid.DefaultTicker)

	demo, err := c.Lookup("Demonetisation")
	require.NoError(t, err)
	assert.Equal(t, "HDFCBANK.NS", demo.DefaultTicker)
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("  ")
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"bad date":      "scenarios:\n  - {name: X, start: 2020-13-01, end: 2021-01-01, default_ticker: TCS.NS}\n",
		"end first":     "scenarios:\n  - {name: X, start: 2021-01-01, end: 2020-01-01, default_ticker: TCS.NS}\n",
		"missing name":  "scenarios:\n  - {start: 2020-01-01, end: 2021-01-01, default_ticker: TCS.NS}\n",
		"bad ticker":    "scenarios:\n  - {name: X, start: 2020-01-01, end: 2021-01-01, default_ticker: 'T CS'}\n",
		"not yaml list": "scenarios: 12\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
