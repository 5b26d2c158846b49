package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meet7773/ChronoStox/internal/marketdata"
	"github.com/Meet7773/ChronoStox/internal/simulator"
)

func newRegistry(ttl time.Duration) (*Registry, *time.Time) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(marketdata.NewMemoryProvider(), decimal.NewFromInt(100000), ttl, zerolog.Nop())
	r.now = func() time.Time { return now }
	return r, &now
}

func TestCreateAndGet(t *testing.T) {
	r, _ := newRegistry(time.Hour)

	s := r.Create()
	require.NotEmpty(t, s.ID)
	assert.Equal(t, simulator.Live, s.Live.Kind())
	assert.Equal(t, simulator.Scenario, s.Scenario.Kind())
	assert.True(t, s.Account.Cash().Equal(decimal.NewFromInt(100000)))

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.Get("unknown")
	assert.False(t, ok)
	_, ok = r.Get("")
	assert.False(t, ok)
}

func TestSessionsAreIsolated(t *testing.T) {
	r, _ := newRegistry(time.Hour)
	a, b := r.Create(), r.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotSame(t, a.Account, b.Account)
}

func TestIdleSessionsExpireLazily(t *testing.T) {
	r, now := newRegistry(time.Hour)
	s := r.Create()

	*now = now.Add(50 * time.Minute)
	_, ok := r.Get(s.ID)
	require.True(t, ok, "access refreshes the idle timer")

	*now = now.Add(50 * time.Minute)
	_, ok = r.Get(s.ID)
	require.True(t, ok)

	*now = now.Add(time.Hour)
	_, ok = r.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestResolve(t *testing.T) {
	r, _ := newRegistry(time.Hour)
	s := r.Create()

	got, created := r.Resolve(s.ID)
	assert.False(t, created)
	assert.Same(t, s, got)

	fresh, created := r.Resolve("stale-id")
	assert.True(t, created)
	assert.NotEqual(t, s.ID, fresh.ID)
	assert.Equal(t, 2, r.Len())
}

func TestSweep(t *testing.T) {
	r, now := newRegistry(30 * time.Minute)
	old := r.Create()
	*now = now.Add(20 * time.Minute)
	recent := r.Create()

	*now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep())

	_, ok := r.Get(old.ID)
	assert.False(t, ok)
	_, ok = r.Get(recent.ID)
	assert.True(t, ok)
}

func TestSummary(t *testing.T) {
	r, _ := newRegistry(time.Hour)
	s := r.Create()
	_, err := s.Account.Execute("TCS.NS", "BUY", 10, decimal.NewFromInt(3850), time.Now(), "")
	require.NoError(t, err)

	sum := s.Summary()
	assert.Equal(t, s.ID, sum.SessionID)
	assert.Equal(t, "61500.00", sum.Cash.StringFixed(2))
	assert.Equal(t, int64(10), sum.TotalPositions)
	assert.Equal(t, "100000.00", sum.TotalValue.StringFixed(2))
}
