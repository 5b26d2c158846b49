package screener

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidQuery is returned for unknown sort columns or page sizes.
var ErrInvalidQuery = errors.New("screener: invalid query")

// PageSizes are the allowed rows-per-page values.
var PageSizes = []int{10, 25, 50, 100}

// DefaultPageSize is used when no page size is given.
const DefaultPageSize = 25

// Query selects, orders and pages universe rows. Zero values mean "no
// filter", "no sort", first page and DefaultPageSize.
type Query struct {
	Text       string
	Categories []string
	Min        *float64 // inclusive lower bound on Market Cap
	Max        *float64 // inclusive upper bound on Market Cap
	SortBy     string
	Asc        bool
	Page       int
	PerPage    int
}

// Result is one page of a screen.
type Result struct {
	Rows         []Row `json:"rows"`
	Total        int   `json:"total"`
	Page         int   `json:"page"`
	Pages        int   `json:"pages"`
	PerPage      int   `json:"per_page"`
	HasMarketCap bool  `json:"has_market_cap"`
}

// Screen applies q to u and returns the requested page.
func Screen(u *Universe, q Query) (Result, error) {
	perPage, err := pageSize(q.PerPage)
	if err != nil {
		return Result{}, err
	}
	matched, err := Filter(u, q)
	if err != nil {
		return Result{}, err
	}

	total := len(matched)
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result{
		Rows:         matched[start:end],
		Total:        total,
		Page:         page,
		Pages:        pages,
		PerPage:      perPage,
		HasMarketCap: u.HasMarketCap(),
	}, nil
}

// Filter returns every row matching q, sorted but not paged.
func Filter(u *Universe, q Query) ([]Row, error) {
	if q.SortBy != "" && !contains(u.numeric, q.SortBy) {
		return nil, fmt.Errorf("%w: cannot sort by %q", ErrInvalidQuery, q.SortBy)
	}

	text := strings.ToLower(strings.TrimSpace(q.Text))
	cats := make(map[string]bool, len(q.Categories))
	for _, c := range q.Categories {
		if c = strings.TrimSpace(c); c != "" {
			cats[c] = true
		}
	}
	ranged := (q.Min != nil || q.Max != nil) && u.HasMarketCap()

	out := make([]Row, 0, len(u.rows))
	for _, r := range u.rows {
		if text != "" &&
			!strings.Contains(strings.ToLower(r.Ticker), text) &&
			!strings.Contains(strings.ToLower(r.Name), text) {
			continue
		}
		if len(cats) > 0 && !cats[r.Category] {
			continue
		}
		if ranged {
			mc, ok := r.Metric(ColMarketCap)
			if !ok || (q.Min != nil && mc < *q.Min) || (q.Max != nil && mc > *q.Max) {
				continue
			}
		}
		out = append(out, r)
	}

	if q.SortBy != "" {
		sortRows(out, q.SortBy, q.Asc)
	}
	return out, nil
}

// sortRows orders rows by col; rows without a value go last either way.
func sortRows(rows []Row, col string, asc bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := rows[i].Metric(col)
		b, bok := rows[j].Metric(col)
		switch {
		case !aok:
			return false
		case !bok:
			return true
		case asc:
			return a < b
		default:
			return a > b
		}
	})
}

// Categories lists the distinct categories of u, sorted.
func Categories(u *Universe) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range u.rows {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// DefaultCategories is the preselected category set: the first four.
func DefaultCategories(u *Universe) []string {
	all := Categories(u)
	if len(all) > 4 {
		all = all[:4]
	}
	return all
}

// WriteCSV writes rows as Ticker, Name, Category Name and, when
// withMarketCap is set, Market Cap.
func WriteCSV(w io.Writer, rows []Row, withMarketCap bool) error {
	cw := csv.NewWriter(w)
	header := []string{ColTicker, ColName, ColCategory}
	if withMarketCap {
		header = append(header, ColMarketCap)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.Ticker, r.Name, r.Category}
		if withMarketCap {
			mc := ""
			if v, ok := r.Metric(ColMarketCap); ok {
				mc = strconv.FormatFloat(v, 'f', -1, 64)
			}
			rec = append(rec, mc)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", r.Ticker, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func pageSize(n int) (int, error) {
	if n == 0 {
		return DefaultPageSize, nil
	}
	for _, s := range PageSizes {
		if s == n {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: page size %d not in %v", ErrInvalidQuery, n, PageSizes)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
