package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampNewsLimit(t *testing.T) {
	cases := map[int]int{-1: DefaultNews, 0: DefaultNews, 1: MinNews, 3: 3, 10: 10, 15: 15, 40: MaxNews}
	for in, want := range cases {
		assert.Equal(t, want, ClampNewsLimit(in), "limit %d", in)
	}
}

func TestParseNews_NestedContentLayout(t *testing.T) {
	raw := []byte(`[{
	  "content":{
	    "title":"TCS wins large deal",
	    "summary":"Multi-year contract.",
	    "pubDate":"2024-03-01T09:30:00Z",
	    "canonicalUrl":{"url":"https://example.com/tcs"},
	    "provider":{"displayName":"Reuters"},
	    "thumbnail":{"resolutions":[{"url":"https://img/1.jpg"},{"url":"https://img/2.jpg"}]}
	  }
	}]`)

	items := ParseNews(raw)
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "TCS wins large deal", it.Title)
	assert.Equal(t, "Multi-year contract.", it.Summary)
	assert.Equal(t, "https://example.com/tcs", it.Link)
	assert.Equal(t, "Reuters", it.Publisher)
	assert.Equal(t, "https://img/1.jpg", it.ImageURL)
	require.NotNil(t, it.Published)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), *it.Published)
	assert.Equal(t, "2024-03-01 09:30", it.PublishedLabel())
}

func TestParseNews_Defaults(t *testing.T) {
	items := ParseNews([]byte(`{"news":[{}]}`))
	require.Len(t, items, 1)
	assert.Equal(t, "No Title", items[0].Title)
	assert.Equal(t, "#", items[0].Link)
	assert.Equal(t, "Unknown", items[0].Publisher)
	assert.Nil(t, items[0].Published)
	assert.Equal(t, "Unknown Date", items[0].PublishedLabel())
}

func TestParseNews_SkipsMalformedRecords(t *testing.T) {
	raw := []byte(`{"news":[
	  "not an object",
	  {"content":"flat string"},
	  {"content":{"canonicalUrl":"https://bad"}},
	  {"content":{"title":"Bad thumb","thumbnail":{"resolutions":"x"}}},
	  {"title":"Kept"}
	]}`)

	items := ParseNews(raw)
	require.Len(t, items, 1)
	assert.Equal(t, "Kept", items[0].Title)
}

func TestParseNews_InvalidPayload(t *testing.T) {
	assert.Nil(t, ParseNews([]byte(`not json`)))
	assert.Nil(t, ParseNews([]byte(`{"news":{"title":"x"}}`)))
	assert.Nil(t, ParseNews([]byte(`42`)))
}
