package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meet7773/ChronoStox/internal/model"
)

// slowProvider blocks until ctx ends, or answers from MemoryProvider when
// delay is zero.
type slowProvider struct {
	*MemoryProvider
	delay time.Duration
	err   error
}

func (p *slowProvider) wait(ctx context.Context) error {
	if p.err != nil {
		return p.err
	}
	if p.delay == 0 {
		return nil
	}
	select {
	case <-time.After(p.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *slowProvider) History(ctx context.Context, sym string, start, end time.Time) (model.Series, error) {
	if err := p.wait(ctx); err != nil {
		return model.Series{}, err
	}
	return p.MemoryProvider.History(ctx, sym, start, end)
}

func (p *slowProvider) QuoteInfo(ctx context.Context, sym string) (model.QuoteInfo, error) {
	if err := p.wait(ctx); err != nil {
		return model.QuoteInfo{}, err
	}
	return p.MemoryProvider.QuoteInfo(ctx, sym)
}

func (p *slowProvider) News(ctx context.Context, sym string) ([]model.NewsItem, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.MemoryProvider.News(ctx, sym)
}

func TestTimeoutProvider_DeadlineYieldsEmpty(t *testing.T) {
	slow := &slowProvider{MemoryProvider: NewMemoryProvider(), delay: time.Second}
	p := WithTimeout(slow, 20*time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	s, err := p.History(ctx, "TCS.NS", time.Now().AddDate(-1, 0, 0), time.Now())
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Equal(t, "TCS.NS", s.Ticker)

	info, err := p.QuoteInfo(ctx, "TCS.NS")
	require.NoError(t, err)
	assert.True(t, info.Empty())

	items, err := p.News(ctx, "TCS.NS")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestTimeoutProvider_PassesThrough(t *testing.T) {
	mem := NewMemoryProvider()
	mem.SetInfo("TCS.NS", model.QuoteInfo{Ticker: "TCS.NS", Name: "TCS"})
	p := WithTimeout(&slowProvider{MemoryProvider: mem}, time.Second, zerolog.Nop())

	info, err := p.QuoteInfo(context.Background(), "TCS.NS")
	require.NoError(t, err)
	assert.Equal(t, "TCS", info.Name)
}

func TestTimeoutProvider_KeepsOtherErrors(t *testing.T) {
	boom := errors.New("connection refused")
	p := WithTimeout(&slowProvider{MemoryProvider: NewMemoryProvider(), err: boom}, time.Second, zerolog.Nop())

	_, err := p.News(context.Background(), "TCS.NS")
	assert.ErrorIs(t, err, boom)
}

func TestChain_FallsBackOnEmpty(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	primary := NewMemoryProvider()
	secondary := NewMemoryProvider()
	secondary.SetBars("WIPRO.NS", dailyBars(day, 450, 455))
	secondary.SetInfo("WIPRO.NS", model.QuoteInfo{Ticker: "WIPRO.NS", Name: "Wipro"})

	c := NewChain(zerolog.Nop(), primary, secondary)
	ctx := context.Background()

	s, err := c.History(ctx, "WIPRO.NS", day, day.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Len(t, s.Bars, 2)
	assert.Equal(t, 1, primary.Calls(CallHistory))

	info, err := c.QuoteInfo(ctx, "WIPRO.NS")
	require.NoError(t, err)
	assert.Equal(t, "Wipro", info.Name)
}

func TestChain_PrefersFirstProvider(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	primary := NewMemoryProvider()
	primary.SetBars("ITC.NS", dailyBars(day, 400))
	secondary := NewMemoryProvider()

	c := NewChain(zerolog.Nop(), primary, secondary)
	_, err := c.History(context.Background(), "ITC.NS", day, day)
	require.NoError(t, err)
	assert.Equal(t, 0, secondary.Calls(CallHistory))
}

func TestChain_AllEmpty(t *testing.T) {
	boom := errors.New("upstream 502")
	c := NewChain(zerolog.Nop(),
		&slowProvider{MemoryProvider: NewMemoryProvider(), err: boom},
		NewMemoryProvider(),
	)
	ctx := context.Background()

	_, err := c.News(ctx, "ITC.NS")
	assert.ErrorIs(t, err, boom)

	// Not-found answers are treated as empty, not as failures.
	_, err = NewChain(zerolog.Nop(), NewMemoryProvider()).QuoteInfo(ctx, "ITC.NS")
	assert.NoError(t, err)
}
