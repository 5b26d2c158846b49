// Package ticker handles market symbol normalization and validation for
// Yahoo-style symbols: equities (RELIANCE.NS, AAPL) and indices (^NSEI).
package ticker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// symbolRegex matches: [^]{BASE}[.{EXCH}]
// Examples: TCS.NS, M&M.NS, BAJAJ-AUTO.NS, ^NSEBANK, AAPL
var symbolRegex = regexp.MustCompile(
	`^(\^)?([A-Z0-9][A-Z0-9&\-]*)(?:\.([A-Z]{1,4}))?$`,
)

var ErrInvalidTicker = errors.New("ticker: invalid symbol")

// Symbol is a parsed market symbol.
type Symbol struct {
	Symbol   string `json:"symbol"`
	Base     string `json:"base"`
	Exchange string `json:"exchange,omitempty"`
	Index    bool   `json:"index"`
}

// Normalize trims whitespace and upper-cases a user-entered symbol.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Parse normalizes and validates a symbol.
// Format: [^]{BASE}[.{EXCH}]
func Parse(s string) (*Symbol, error) {
	norm := Normalize(s)
	matches := symbolRegex.FindStringSubmatch(norm)
	if matches == nil {
		return nil, fmt.Errorf("%w: %q (expected SYMBOL, SYMBOL.EXCH or ^INDEX)",
			ErrInvalidTicker, s)
	}

	index := matches[1] == "^"
	if index && matches[3] != "" {
		return nil, fmt.Errorf("%w: index %s cannot carry an exchange suffix", ErrInvalidTicker, norm)
	}

	return &Symbol{
		Symbol:   norm,
		Base:     matches[2],
		Exchange: matches[3],
		Index:    index,
	}, nil
}

// Dedupe normalizes symbols and drops blanks and repeats, keeping
// first-seen order.
func Dedupe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n := Normalize(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
