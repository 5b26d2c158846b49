package screener

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = ` Ticker ,Name,Category Name,MarketCap,Price,Exchange
reliance.ns, Reliance Industries ,Energy,1900000,2950.5,NSE
TCS.NS,Tata Consultancy Services,IT,1500000,n/a,NSE
INFY.NS,Infosys,IT,,1450,NSE
,Blank Ticker,IT,10,10,NSE
HDFCBANK.NS,HDFC Bank, Banking ,1200000,1650,NSE
WIPRO.NS,Wipro,IT,250000,455,NSE
`

func TestReadCleansRows(t *testing.T) {
	u, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Equal(t, 5, u.Len())
	first := u.Rows()[0]
	assert.Equal(t, "RELIANCE.NS", first.Ticker)
	assert.Equal(t, "Reliance Industries", first.Name)
	assert.Equal(t, "Banking", u.Rows()[3].Category)

	mc, ok := first.Metric(ColMarketCap)
	require.True(t, ok)
	assert.Equal(t, 1900000.0, mc)

	_, ok = u.Rows()[1].Metric("Price")
	assert.False(t, ok, "unparseable price is null")
	_, ok = u.Rows()[2].Metric(ColMarketCap)
	assert.False(t, ok, "empty market cap is null")

	assert.Equal(t, []string{ColMarketCap, "Price"}, u.NumericColumns())
	assert.True(t, u.HasMarketCap())
}

func TestReadMissingColumns(t *testing.T) {
	_, err := Read(strings.NewReader("Ticker,Name\nTCS.NS,TCS\n"))
	require.ErrorIs(t, err, ErrDataUnavailable)
	assert.Contains(t, err.Error(), "Category Name")
}

func TestReadDetectsOtherNumericColumns(t *testing.T) {
	u, err := Read(strings.NewReader("Ticker,Name,Category Name,Beta,Notes\nA,A,X,1.2,hello\nB,B,X,,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta"}, u.NumericColumns())
	assert.False(t, u.HasMarketCap())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestTickerList(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "ticker.csv")
	require.NoError(t, os.WriteFile(path, []byte("Ticker\ntcs.ns\nINFY.NS\n TCS.NS \n\n"), 0o600))
	list, defaults := TickerList(path)
	assert.False(t, defaults)
	assert.Equal(t, []string{"TCS.NS", "INFY.NS"}, list)

	list, defaults = TickerList(filepath.Join(dir, "absent.csv"))
	assert.True(t, defaults)
	assert.Equal(t, DefaultTickers, list)

	noCol := filepath.Join(dir, "nocol.csv")
	require.NoError(t, os.WriteFile(noCol, []byte("Symbol\nTCS.NS\n"), 0o600))
	_, defaults = TickerList(noCol)
	assert.True(t, defaults)
}
