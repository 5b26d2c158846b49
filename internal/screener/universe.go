// Package screener filters, sorts and pages the static ticker universe read
// from a CSV file. It never touches an Account.
package screener

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Meet7773/ChronoStox/internal/ticker"
)

// ErrDataUnavailable means the universe file is missing or malformed.
var ErrDataUnavailable = errors.New("screener: universe data unavailable")

// Required and canonical column names.
const (
	ColTicker    = "Ticker"
	ColName      = "Name"
	ColCategory  = "Category Name"
	ColMarketCap = "Market Cap"
)

// coercedColumns are parsed as numbers whenever they are present.
var coercedColumns = []string{"Price", "PE", "P/E", "Dividend Yield", "DividendYield"}

// DefaultTickers feed the ticker pickers when no usable file exists.
var DefaultTickers = []string{"RELIANCE.NS", "TCS.NS", "INFY.NS", "HDFCBANK.NS", "ICICIBANK.NS"}

// Row is one security of the universe. Metrics holds only values that
// parsed; a missing key is a null.
type Row struct {
	Ticker   string             `json:"ticker"`
	Name     string             `json:"name"`
	Category string             `json:"category"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

// Metric returns the named numeric value and whether it is present.
func (r Row) Metric(col string) (float64, bool) {
	v, ok := r.Metrics[col]
	return v, ok
}

// Universe is the loaded, cleaned ticker table.
type Universe struct {
	rows    []Row
	numeric []string
}

// NewUniverse builds a universe from already-clean rows; numeric names the
// metric columns offered for sorting.
func NewUniverse(rows []Row, numeric ...string) *Universe {
	return &Universe{rows: rows, numeric: numeric}
}

// Rows returns the rows in file order.
func (u *Universe) Rows() []Row { return u.rows }

// Len returns the row count.
func (u *Universe) Len() int { return len(u.rows) }

// NumericColumns lists the sortable columns in file order.
func (u *Universe) NumericColumns() []string {
	return append([]string(nil), u.numeric...)
}

// HasMarketCap reports whether any row carries a market cap.
func (u *Universe) HasMarketCap() bool {
	for _, r := range u.rows {
		if _, ok := r.Metrics[ColMarketCap]; ok {
			return true
		}
	}
	return false
}

// Load reads and cleans the universe CSV at path.
func Load(path string) (*Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a universe CSV stream. Column names are trimmed; Ticker, Name
// and Category Name are required.
func Read(r io.Reader) (*Universe, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	header := records[0]
	idx := columnIndex(header)

	var missing []string
	for _, col := range []string{ColTicker, ColName, ColCategory} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrDataUnavailable, strings.Join(missing, ", "))
	}

	numericSrc := numericColumns(header, records[1:])

	u := &Universe{}
	for _, n := range numericSrc {
		u.numeric = append(u.numeric, n.name)
	}

	for _, rec := range records[1:] {
		sym := ticker.Normalize(field(rec, idx[ColTicker]))
		if sym == "" {
			continue
		}
		row := Row{
			Ticker:   sym,
			Name:     strings.TrimSpace(field(rec, idx[ColName])),
			Category: strings.TrimSpace(field(rec, idx[ColCategory])),
		}
		for _, n := range numericSrc {
			if v, ok := parseNumber(field(rec, n.col)); ok {
				if row.Metrics == nil {
					row.Metrics = make(map[string]float64, len(numericSrc))
				}
				row.Metrics[n.name] = v
			}
		}
		u.rows = append(u.rows, row)
	}
	return u, nil
}

// TickerList returns the unique upper-cased tickers of the file at path in
// first-seen order. It falls back to DefaultTickers, reporting true, when
// the file is missing, unreadable, has no Ticker column or no tickers.
func TickerList(path string) ([]string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return append([]string(nil), DefaultTickers...), true
	}
	defer f.Close()

	records, err := readAll(f)
	if err != nil {
		return append([]string(nil), DefaultTickers...), true
	}
	col, ok := columnIndex(records[0])[ColTicker]
	if !ok {
		return append([]string(nil), DefaultTickers...), true
	}
	raw := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		raw = append(raw, field(rec, col))
	}
	list := ticker.Dedupe(raw)
	if len(list) == 0 {
		return append([]string(nil), DefaultTickers...), true
	}
	return list, false
}

func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrDataUnavailable)
	}
	return records, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

type numericColumn struct {
	name string
	col  int
}

// numericColumns picks the metric columns: the first market-cap alias as
// Market Cap, the known numeric names, and any other column whose
// non-empty cells all parse as numbers.
func numericColumns(header []string, rows [][]string) []numericColumn {
	known := make(map[string]bool, len(coercedColumns))
	for _, c := range coercedColumns {
		known[c] = true
	}

	var out []numericColumn
	mcapSeen := false
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case h == ColTicker || h == ColName || h == ColCategory || h == "":
			continue
		case isMarketCapAlias(h):
			if !mcapSeen {
				mcapSeen = true
				out = append(out, numericColumn{name: ColMarketCap, col: i})
			}
		case known[h] || allNumeric(rows, i):
			out = append(out, numericColumn{name: h, col: i})
		}
	}
	return out
}

func isMarketCapAlias(col string) bool {
	key := strings.ReplaceAll(strings.ToLower(col), " ", "")
	return key == "marketcap" || key == "market_cap"
}

func allNumeric(rows [][]string, col int) bool {
	seen := false
	for _, rec := range rows {
		s := strings.TrimSpace(field(rec, col))
		if s == "" {
			continue
		}
		if _, ok := parseNumber(s); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
