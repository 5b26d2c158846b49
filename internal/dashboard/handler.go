// Package dashboard provides the HTTP handlers of the paper-trading
// dashboard: session summary, live and scenario trading, portfolio,
// trade log, screener, indices overview and company info.
//
// All monetary values use shopspring/decimal, never float64 for money.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Meet7773/ChronoStox/internal/chart"
	"github.com/Meet7773/ChronoStox/internal/display"
	"github.com/Meet7773/ChronoStox/internal/ledger"
	"github.com/Meet7773/ChronoStox/internal/marketdata"
	"github.com/Meet7773/ChronoStox/internal/model"
	"github.com/Meet7773/ChronoStox/internal/overview"
	"github.com/Meet7773/ChronoStox/internal/scenario"
	"github.com/Meet7773/ChronoStox/internal/screener"
	"github.com/Meet7773/ChronoStox/internal/session"
	"github.com/Meet7773/ChronoStox/internal/simulator"
	"github.com/Meet7773/ChronoStox/internal/ticker"
)

// Options wires a Handler.
type Options struct {
	Sessions *session.Registry
	Provider marketdata.Provider
	Catalog  *scenario.Catalog
	// Universe is nil when the screener file could not be loaded.
	Universe       *screener.Universe
	Tickers        []string
	TickerDefaults bool
	Overview       *overview.Service
	Hub            *WSHub // optional
	Log            zerolog.Logger
}

// Handler serves the dashboard API.
type Handler struct {
	sessions       *session.Registry
	provider       marketdata.Provider
	catalog        *scenario.Catalog
	universe       *screener.Universe
	unavailable    bool
	tickers        []string
	tickerDefaults bool
	overview       *overview.Service
	hub            *WSHub
	log            zerolog.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(o Options) *Handler {
	h := &Handler{
		sessions:       o.Sessions,
		provider:       o.Provider,
		catalog:        o.Catalog,
		universe:       o.Universe,
		tickers:        o.Tickers,
		tickerDefaults: o.TickerDefaults,
		overview:       o.Overview,
		hub:            o.Hub,
		log:            o.Log.With().Str("component", "dashboard").Logger(),
	}
	if h.catalog == nil {
		h.catalog = scenario.Default()
	}
	if h.universe == nil {
		h.universe = screener.NewUniverse(nil)
		h.unavailable = true
	}
	if len(h.tickers) == 0 {
		h.tickers = append([]string(nil), screener.DefaultTickers...)
		h.tickerDefaults = true
	}
	if h.overview == nil {
		h.overview = overview.New(o.Provider, o.Log)
	}
	return h
}

// Routes returns the API router, to be mounted under /api/v1.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/tickers", h.ListTickers)
	r.Get("/scenarios", h.ListScenarios)
	r.Get("/screener", h.Screen)
	r.Get("/screener/export", h.ExportScreen)
	r.Get("/overview", h.Overview)
	r.Get("/quotes/{ticker}/info", h.QuoteInfo)
	r.Get("/quotes/{ticker}/news", h.News)

	r.Group(func(r chi.Router) {
		r.Use(h.WithSession)

		r.Get("/session", h.Session)
		r.Get("/portfolio", h.Portfolio)
		r.Get("/trades", h.Trades)

		r.Post("/live/load", h.LoadLive)
		r.Get("/live", h.LiveSnapshot)
		r.Post("/live/trade", h.LiveTrade)
		r.Get("/live/chart", h.LiveChart)

		r.Post("/scenario/load", h.LoadScenario)
		r.Put("/scenario/cursor", h.MoveCursor)
		r.Get("/scenario", h.ScenarioSnapshot)
		r.Post("/scenario/trade", h.ScenarioTrade)
		r.Get("/scenario/chart", h.ScenarioChart)

		if h.hub != nil {
			r.Get("/ws", h.hub.HandleWS)
		}
	})
	return r
}

// --- Request/Response types ---

// LoadLiveRequest is the JSON body for POST /live/load.
type LoadLiveRequest struct {
	Ticker string `json:"ticker"` // blank means the first picker entry
}

// LoadScenarioRequest is the JSON body for POST /scenario/load.
type LoadScenarioRequest struct {
	Scenario string `json:"scenario"`
	Ticker   string `json:"ticker"` // blank means the scenario's default
}

// CursorRequest is the JSON body for PUT /scenario/cursor.
type CursorRequest struct {
	Index int `json:"index"`
}

// TradeRequest is the JSON body for POST /live/trade and /scenario/trade.
type TradeRequest struct {
	Side     string `json:"side"` // BUY or SELL
	Quantity int64  `json:"quantity"`
}

// TradeResponse is returned for a fill.
type TradeResponse struct {
	Trade        model.Trade     `json:"trade"`
	ValueDisplay string          `json:"value_display"`
	Position     model.Position  `json:"position"`
	Summary      session.Summary `json:"summary"`
}

// SurfaceView is a surface snapshot plus display strings.
type SurfaceView struct {
	simulator.Snapshot
	PriceDisplay  string          `json:"price_display"`
	ChangeDisplay string          `json:"change_display"`
	Date          string          `json:"date"`
	Summary       session.Summary `json:"summary"`
}

// HoldingView is a portfolio row plus display strings.
type HoldingView struct {
	ledger.Holding
	AvgPriceDisplay      string `json:"avg_price_display"`
	LastPriceDisplay     string `json:"last_price_display"`
	ValueDisplay         string `json:"value_display"`
	UnrealizedPnLDisplay string `json:"unrealized_pnl_display"`
}

// PortfolioView is the response of GET /portfolio.
type PortfolioView struct {
	Cash              decimal.Decimal `json:"cash"`
	CashDisplay       string          `json:"cash_display"`
	TotalValue        decimal.Decimal `json:"total_value"`
	TotalValueDisplay string          `json:"total_value_display"`
	TotalPositions    int64           `json:"total_positions"`
	Holdings          []HoldingView   `json:"holdings"`
}

// --- Session ---

type sessionKey struct{}

// WithSession resolves the session cookie, creating a session when the
// cookie is missing or stale, and refreshes the cookie.
func (h *Handler) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(session.CookieName); err == nil {
			id = c.Value
		}
		sess, _ := h.sessions.Resolve(id)

		cookie := &http.Cookie{
			Name:     session.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		if ttl := h.sessions.TTL(); ttl > 0 {
			cookie.MaxAge = int(ttl.Seconds())
		}
		http.SetCookie(w, cookie)

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey{}).(*session.Session)
	return s
}

// Session handles GET /api/v1/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Summary())
}

// ListTickers handles GET /api/v1/tickers
func (h *Handler) ListTickers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tickers":  h.tickers,
		"defaults": h.tickerDefaults,
	})
}

// ListScenarios handles GET /api/v1/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.All())
}

// --- Live surface ---

// LoadLive handles POST /api/v1/live/load
func (h *Handler) LoadLive(w http.ResponseWriter, r *http.Request) {
	var req LoadLiveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sym := req.Ticker
	if ticker.Normalize(sym) == "" {
		sym = h.tickers[0]
	}

	sess := sessionFrom(r.Context())
	if err := sess.Live.LoadLive(r.Context(), sym); err != nil {
		writeError(w, err)
		return
	}
	h.notifyLoaded(sess, sess.Live)
	h.writeSnapshot(w, sess, sess.Live)
}

// LiveSnapshot handles GET /api/v1/live
func (h *Handler) LiveSnapshot(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	h.writeSnapshot(w, sess, sess.Live)
}

// LiveTrade handles POST /api/v1/live/trade
func (h *Handler) LiveTrade(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	h.trade(w, r, sess, sess.Live)
}

// LiveChart handles GET /api/v1/live/chart
func (h *Handler) LiveChart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	h.renderChart(w, sess.Live, false)
}

// --- Scenario surface ---

// LoadScenario handles POST /api/v1/scenario/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sc, err := h.catalog.Lookup(req.Scenario)
	if err != nil {
		writeError(w, err)
		return
	}

	sess := sessionFrom(r.Context())
	if err := sess.Scenario.LoadScenario(r.Context(), sc, req.Ticker); err != nil {
		writeError(w, err)
		return
	}
	h.notifyLoaded(sess, sess.Scenario)
	h.writeSnapshot(w, sess, sess.Scenario)
}

// MoveCursor handles PUT /api/v1/scenario/cursor
// Out-of-range indexes are clamped to the series.
func (h *Handler) MoveCursor(w http.ResponseWriter, r *http.Request) {
	var req CursorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess := sessionFrom(r.Context())
	idx, err := sess.Scenario.SetCursor(req.Index)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.hub != nil {
		if bar, err := sess.Scenario.CurrentBar(); err == nil {
			snap, _ := sess.Scenario.Snapshot()
			h.hub.Send(sess.ID, Event{
				Type:     "cursor_moved",
				Surface:  string(simulator.Scenario),
				Ticker:   snap.Ticker,
				Scenario: snap.Scenario,
				Price:    bar.Close.String(),
				Cursor:   &idx,
				Date:     bar.Time.UTC().Format("2006-01-02"),
			})
		}
	}
	h.writeSnapshot(w, sess, sess.Scenario)
}

// ScenarioSnapshot handles GET /api/v1/scenario
func (h *Handler) ScenarioSnapshot(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	h.writeSnapshot(w, sess, sess.Scenario)
}

// ScenarioTrade handles POST /api/v1/scenario/trade
func (h *Handler) ScenarioTrade(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	h.trade(w, r, sess, sess.Scenario)
}

// ScenarioChart handles GET /api/v1/scenario/chart
func (h *Handler) ScenarioChart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	h.renderChart(w, sess.Scenario, true)
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, sess *session.Session, surface *simulator.Surface) {
	var req TradeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	side := model.Side(strings.ToUpper(strings.TrimSpace(req.Side)))

	t, err := surface.Trade(side, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}

	h.log.Info().
		Str("session", sess.ID).
		Str("surface", string(surface.Kind())).
		Str("trade_id", t.ID).
		Msg("trade executed")

	if h.hub != nil {
		h.hub.Send(sess.ID, Event{
			Type:     "trade_executed",
			Surface:  string(surface.Kind()),
			Ticker:   t.Ticker,
			Scenario: t.Scenario,
			Side:     string(t.Side),
			Quantity: t.Quantity,
			Price:    t.Price.String(),
			Date:     t.Timestamp.UTC().Format("2006-01-02"),
			Cash:     sess.Account.Cash().StringFixed(2),
		})
	}

	writeJSON(w, http.StatusOK, TradeResponse{
		Trade:        t,
		ValueDisplay: display.INR(t.Value),
		Position:     sess.Account.Position(t.Ticker),
		Summary:      sess.Summary(),
	})
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, sess *session.Session, surface *simulator.Surface) {
	snap, err := surface.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	view := SurfaceView{
		Snapshot:      snap,
		PriceDisplay:  display.INR(snap.Price),
		ChangeDisplay: display.SignedINR(snap.Change),
		Date:          snap.Bar.Time.UTC().Format("2006-01-02"),
		Summary:       sess.Summary(),
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) notifyLoaded(sess *session.Session, surface *simulator.Surface) {
	if h.hub == nil {
		return
	}
	snap, err := surface.Snapshot()
	if err != nil {
		return
	}
	cursor := snap.Cursor
	h.hub.Send(sess.ID, Event{
		Type:     "series_loaded",
		Surface:  string(surface.Kind()),
		Ticker:   snap.Ticker,
		Scenario: snap.Scenario,
		Price:    snap.Price.String(),
		Cursor:   &cursor,
		Date:     snap.Bar.Time.UTC().Format("2006-01-02"),
	})
}

func (h *Handler) renderChart(w http.ResponseWriter, surface *simulator.Surface, markCursor bool) {
	series, cursor, err := surface.Series()
	if err != nil {
		writeError(w, err)
		return
	}
	opts := chart.Options{Cursor: -1}
	if markCursor {
		opts.Cursor = cursor
		snap, _ := surface.Snapshot()
		if snap.Scenario != "" {
			opts.Title = snap.Scenario + ": " + series.Ticker
		}
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, series, opts); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// --- Portfolio and trade log ---

// Portfolio handles GET /api/v1/portfolio
// Returns cash, total value and one row per open position.
func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	acct := sessionFrom(r.Context()).Account

	holdings := acct.Holdings()
	rows := make([]HoldingView, 0, len(holdings))
	for _, hd := range holdings {
		pnl := "N/A"
		if hd.UnrealizedPnL != nil {
			pnl = display.SignedINR(*hd.UnrealizedPnL)
		}
		rows = append(rows, HoldingView{
			Holding:              hd,
			AvgPriceDisplay:      display.INR(hd.AvgPrice),
			LastPriceDisplay:     display.OptionalINR(hd.LastPrice),
			ValueDisplay:         display.INR(hd.Value),
			UnrealizedPnLDisplay: pnl,
		})
	}

	cash := acct.Cash()
	total := acct.TotalValue()
	writeJSON(w, http.StatusOK, PortfolioView{
		Cash:              cash,
		CashDisplay:       display.INR(cash),
		TotalValue:        total,
		TotalValueDisplay: display.INR(total),
		TotalPositions:    acct.TotalPositions(),
		Holdings:          rows,
	})
}

// Trades handles GET /api/v1/trades
// Newest first; ?format=csv downloads the log.
func (h *Handler) Trades(w http.ResponseWriter, r *http.Request) {
	trades := sessionFrom(r.Context()).Account.Trades()

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		var buf bytes.Buffer
		if err := ledger.WriteCSV(&buf, trades); err != nil {
			writeError(w, err)
			return
		}
		writeCSV(w, "trade_log.csv", buf.Bytes())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(trades),
		"trades": ledger.ExportRows(trades),
	})
}

// --- Screener ---

// ScreenResponse is the response of GET /screener.
type ScreenResponse struct {
	screener.Result
	Categories        []string `json:"categories"`
	DefaultCategories []string `json:"default_categories"`
	SortColumns       []string `json:"sort_columns"`
	Unavailable       bool     `json:"unavailable"`
}

// Screen handles GET /api/v1/screener
func (h *Handler) Screen(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := screener.Screen(h.universe, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ScreenResponse{
		Result:            res,
		Categories:        nonNil(screener.Categories(h.universe)),
		DefaultCategories: nonNil(screener.DefaultCategories(h.universe)),
		SortColumns:       nonNil(h.universe.NumericColumns()),
		Unavailable:       h.unavailable,
	})
}

// ExportScreen handles GET /api/v1/screener/export
// Exports every filtered row, not only the current page.
func (h *Handler) ExportScreen(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := screener.Filter(h.universe, q)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := screener.WriteCSV(&buf, rows, h.universe.HasMarketCap()); err != nil {
		writeError(w, err)
		return
	}
	writeCSV(w, "screener_export.csv", buf.Bytes())
}

func parseQuery(r *http.Request) (screener.Query, error) {
	v := r.URL.Query()
	q := screener.Query{
		Text:       v.Get("q"),
		Categories: v["category"],
		SortBy:     v.Get("sort"),
	}

	var err error
	if q.Min, err = optionalFloat(v.Get("min")); err != nil {
		return q, err
	}
	if q.Max, err = optionalFloat(v.Get("max")); err != nil {
		return q, err
	}
	if s := v.Get("asc"); s != "" {
		if q.Asc, err = strconv.ParseBool(s); err != nil {
			return q, badQuery("asc")
		}
	}
	if s := v.Get("page"); s != "" {
		if q.Page, err = strconv.Atoi(s); err != nil {
			return q, badQuery("page")
		}
	}
	if s := v.Get("per_page"); s != "" {
		if q.PerPage, err = strconv.Atoi(s); err != nil {
			return q, badQuery("per_page")
		}
	}
	return q, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, badQuery(s)
	}
	return &f, nil
}

func badQuery(param string) error {
	return &queryError{param: param}
}

type queryError struct{ param string }

func (e *queryError) Error() string { return "invalid query parameter: " + e.param }
func (e *queryError) Unwrap() error { return screener.ErrInvalidQuery }

// --- Overview and company data ---

// IndexView is an overview card plus display strings.
type IndexView struct {
	overview.Quote
	LastCloseDisplay string `json:"last_close_display,omitempty"`
	ChangeDisplay    string `json:"change_display,omitempty"`
	Status           string `json:"status"`
}

// Overview handles GET /api/v1/overview
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	quotes := h.overview.Snapshot(r.Context())
	out := make([]IndexView, len(quotes))
	for i, q := range quotes {
		v := IndexView{Quote: q, Status: "Data unavailable"}
		if q.Available {
			v.Status = "ok"
			v.LastCloseDisplay = display.Number(q.LastClose)
			v.ChangeDisplay = display.SignedPercent(q.ChangePct)
		}
		out[i] = v
	}
	writeJSON(w, http.StatusOK, out)
}

// QuoteInfo handles GET /api/v1/quotes/{ticker}/info
func (h *Handler) QuoteInfo(w http.ResponseWriter, r *http.Request) {
	sym, err := ticker.Parse(chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(w, err)
		return
	}

	info, err := h.provider.QuoteInfo(r.Context(), sym.Symbol)
	if err != nil && !errors.Is(err, marketdata.ErrNotFound) {
		h.log.Warn().Err(err).Str("ticker", sym.Symbol).Msg("quote info unavailable")
	}
	if err != nil || info.Empty() {
		writeError(w, marketdata.ErrNotFound)
		return
	}
	info.Ticker = sym.Symbol

	var capDisplay string
	if info.MarketCap != nil {
		capDisplay = display.INR(decimal.NewFromInt(*info.MarketCap))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"info":               info,
		"market_cap_display": capDisplay,
		"price_display":      display.OptionalINR(info.Price),
	})
}

// NewsView is one article plus its rendered publish time.
type NewsView struct {
	model.NewsItem
	PublishedLabel string `json:"published_label"`
}

// News handles GET /api/v1/quotes/{ticker}/news
// ?max= limits the article count (3 to 15, default 7).
func (h *Handler) News(w http.ResponseWriter, r *http.Request) {
	sym, err := ticker.Parse(chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("max"))
	limit = marketdata.ClampNewsLimit(limit)

	items, err := h.provider.News(r.Context(), sym.Symbol)
	if err != nil {
		h.log.Warn().Err(err).Str("ticker", sym.Symbol).Msg("news unavailable")
		items = nil
	}
	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]NewsView, len(items))
	for i, it := range items {
		out[i] = NewsView{NewsItem: it, PublishedLabel: it.PublishedLabel()}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Kind: "BadRequest"})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// classify maps an error to its HTTP status and taxonomy name.
func classify(err error) (int, string) {
	if kind := ledger.Kind(err); kind != "" {
		return http.StatusUnprocessableEntity, kind
	}
	switch {
	case errors.Is(err, ticker.ErrInvalidTicker):
		return http.StatusBadRequest, "InvalidTicker"
	case errors.Is(err, screener.ErrInvalidQuery):
		return http.StatusBadRequest, "InvalidQuery"
	case errors.Is(err, simulator.ErrNoData), errors.Is(err, chart.ErrEmptySeries):
		return http.StatusNotFound, "NoDataAvailable"
	case errors.Is(err, scenario.ErrUnknownScenario):
		return http.StatusNotFound, "UnknownScenario"
	case errors.Is(err, marketdata.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, simulator.ErrNotLoaded):
		return http.StatusUnprocessableEntity, "NotLoaded"
	case errors.Is(err, simulator.ErrCursorPinned):
		return http.StatusUnprocessableEntity, "CursorPinned"
	}
	return http.StatusInternalServerError, "Internal"
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(body)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
