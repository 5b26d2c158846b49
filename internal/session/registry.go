// Package session keeps per-browser dashboard state in memory. Each
// session owns one ledger account shared by its live and scenario
// surfaces; nothing is persisted and idle sessions expire.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Meet7773/ChronoStox/internal/ledger"
	"github.com/Meet7773/ChronoStox/internal/marketdata"
	"github.com/Meet7773/ChronoStox/internal/metrics"
	"github.com/Meet7773/ChronoStox/internal/simulator"
)

// CookieName carries the session id.
const CookieName = "chronostox_session"

// Session is one user's dashboard state.
type Session struct {
	ID       string
	Created  time.Time
	Account  *ledger.Account
	Live     *simulator.Surface
	Scenario *simulator.Surface

	lastSeen time.Time // guarded by Registry.mu
}

// Summary is the sidebar view available on every page.
type Summary struct {
	SessionID      string          `json:"session_id"`
	Cash           decimal.Decimal `json:"cash"`
	TotalPositions int64           `json:"total_positions"`
	TotalValue     decimal.Decimal `json:"total_value"`
}

// Summary reports cash and position totals.
func (s *Session) Summary() Summary {
	return Summary{
		SessionID:      s.ID,
		Cash:           s.Account.Cash(),
		TotalPositions: s.Account.TotalPositions(),
		TotalValue:     s.Account.TotalValue(),
	}
}

// Registry owns all live sessions.
type Registry struct {
	provider    marketdata.Provider
	initialCash decimal.Decimal
	ttl         time.Duration
	now         func() time.Time
	log         zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. Sessions start with initialCash
// and expire after ttl without access.
func NewRegistry(p marketdata.Provider, initialCash decimal.Decimal, ttl time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		provider:    p,
		initialCash: initialCash,
		ttl:         ttl,
		now:         time.Now,
		log:         log.With().Str("component", "sessions").Logger(),
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session.
func (r *Registry) Create() *Session {
	now := r.now()
	id := uuid.New().String()
	acctLog := r.log.With().Str("session", id).Logger()
	acct := ledger.NewAccount(r.initialCash, acctLog)

	s := &Session{
		ID:       id,
		Created:  now,
		Account:  acct,
		Live:     simulator.New(simulator.Live, r.provider, acct, acctLog),
		Scenario: simulator.New(simulator.Scenario, r.provider, acct, acctLog),
		lastSeen: now,
	}

	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	r.log.Info().Str("session", id).Msg("session created")
	return s
}

// Get returns the session with id and marks it used. Expired sessions are
// dropped and reported as missing.
func (r *Registry) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	now := r.now()

	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok && r.expired(s, now) {
		delete(r.sessions, id)
		n := len(r.sessions)
		r.mu.Unlock()
		metrics.ActiveSessions.Set(float64(n))
		r.log.Info().Str("session", id).Msg("session expired")
		return nil, false
	}
	if ok {
		s.lastSeen = now
	}
	r.mu.Unlock()
	return s, ok
}

// Resolve returns the session with id, or a new one when id is unknown or
// expired. created reports which.
func (r *Registry) Resolve(id string) (s *Session, created bool) {
	if s, ok := r.Get(id); ok {
		return s, false
	}
	return r.Create(), true
}

// Sweep drops every expired session and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	if removed > 0 {
		r.log.Info().Int("removed", removed).Int("active", n).Msg("expired sessions swept")
	}
	return removed
}

// Len returns the number of stored sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// TTL returns the idle expiry.
func (r *Registry) TTL() time.Duration { return r.ttl }

func (r *Registry) expired(s *Session, now time.Time) bool {
	return r.ttl > 0 && now.Sub(s.lastSeen) >= r.ttl
}
