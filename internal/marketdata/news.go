package marketdata

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/Meet7773/ChronoStox/internal/model"
)

// Display bounds for the news list.
const (
	MinNews     = 3
	MaxNews     = 15
	DefaultNews = 7
)

// ClampNewsLimit maps a requested article count into [MinNews, MaxNews];
// zero or negative means DefaultNews.
func ClampNewsLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultNews
	case n < MinNews:
		return MinNews
	case n > MaxNews:
		return MaxNews
	}
	return n
}

// ParseNews decodes a Yahoo news payload: either {"news": [...]} or a bare
// array. Both the flat layout and the nested "content" layout are read.
// Records that do not have the expected shape are skipped one by one.
func ParseNews(raw []byte) []model.NewsItem {
	if !gjson.ValidBytes(raw) {
		return nil
	}
	list := gjson.ParseBytes(raw)
	if list.IsObject() {
		list = list.Get("news")
	}
	if !list.IsArray() {
		return nil
	}

	var out []model.NewsItem
	list.ForEach(func(_, v gjson.Result) bool {
		if item, ok := parseArticle(v); ok {
			out = append(out, item)
		}
		return true
	})
	return out
}

func parseArticle(v gjson.Result) (model.NewsItem, bool) {
	if !v.IsObject() {
		return model.NewsItem{}, false
	}
	content := v.Get("content")
	if present(content) && !content.IsObject() {
		return model.NewsItem{}, false
	}
	canonical := content.Get("canonicalUrl")
	if present(canonical) && !canonical.IsObject() {
		return model.NewsItem{}, false
	}

	var image string
	if thumb := content.Get("thumbnail"); thumb.IsObject() {
		res := thumb.Get("resolutions")
		if present(res) && !res.IsArray() {
			return model.NewsItem{}, false
		}
		image = res.Get("0.url").String()
	}

	item := model.NewsItem{
		Title:     firstNonEmpty(content.Get("title").String(), v.Get("title").String(), "No Title"),
		Summary:   firstNonEmpty(content.Get("summary").String(), v.Get("summary").String()),
		Link:      firstNonEmpty(canonical.Get("url").String(), v.Get("link").String(), "#"),
		Publisher: firstNonEmpty(v.Get("publisher").String(), content.Get("provider.displayName").String(), "Unknown"),
		ImageURL:  image,
	}
	if ts := publishTime(v, content); ts != nil {
		item.Published = ts
	}
	return item, true
}

func publishTime(v, content gjson.Result) *time.Time {
	if p := v.Get("providerPublishTime"); p.Type == gjson.Number && p.Int() > 0 {
		t := time.Unix(p.Int(), 0).UTC()
		return &t
	}
	if p := content.Get("pubDate"); p.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339, p.String()); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
