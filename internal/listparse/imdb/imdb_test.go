package imdb

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listPageJSONLD = `<!DOCTYPE html>
<html><head>
<meta property="og:title" content="Top Sci-Fi - IMDb">
<script type="application/ld+json">
{
  "about": {
    "itemListElement": [
      {"url": "https://www.imdb.com/title/tt0133093/", "item": {"name": "The Matrix", "url": "https://www.imdb.com/title/tt0133093/"}},
      {"item": {"name": "", "url": "https://www.imdb.com/title/tt1375666/"}},
      {"url": "https://www.imdb.com/title/tt0133093/", "item": {"name": "The Matrix (duplicate)"}},
      {"url": "https://www.imdb.com/name/nm0000206/", "item": {"name": "Not a title"}}
    ]
  }
}
</script>
</head><body>
<h1>Top Sci-Fi</h1>
<a href="/list/ls123/?page=2">2</a>
<a href="/list/ls123/?page=3">3</a>
</body></html>`

func TestParseListJSONLD(t *testing.T) {
	res, err := ParseList(strings.NewReader(listPageJSONLD))
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, Item{
		ID:    "tt0133093",
		Title: "The Matrix",
		URL:   "https://www.imdb.com/title/tt0133093/",
	}, res.Items[0])
	assert.Equal(t, "tt1375666", res.Items[1].ID)
	assert.Empty(t, res.Items[1].Title, "missing inline name stays empty for detail resolution")

	assert.Equal(t, "Top Sci-Fi", res.ListTitle)
	assert.Equal(t, 3, res.MaxPage)
}

const listPageAnchors = `<!DOCTYPE html>
<html><head>
<meta property="og:title" content="Top Sci-Fi - IMDb">
<script type="application/ld+json">not json at all</script>
</head><body>
<a href="/title/tt0133093/?ref_=list">1. The Matrix</a>
<a href="/title/tt0133093/">The Matrix again</a>
<a href="/title/tt1375666/">2. Inception</a>
<a href="/chart/top/">Charts</a>
</body></html>`

func TestParseListAnchorFallback(t *testing.T) {
	res, err := ParseList(strings.NewReader(listPageAnchors))
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "tt0133093", res.Items[0].ID)
	assert.Equal(t, "The Matrix", res.Items[0].Title, "rank prefix is stripped")
	assert.Equal(t, "Inception", res.Items[1].Title)

	assert.Equal(t, "Top Sci-Fi - IMDb", res.ListTitle, "og:title used when no h1")
	assert.Zero(t, res.MaxPage)
}

func TestParseListEmptyPage(t *testing.T) {
	res, err := ParseList(strings.NewReader("<html><body><p>Nothing here</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestDetailTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		ok   bool
	}{
		{
			name: "json-ld name preferred",
			body: `<html><head>
<script type="application/ld+json">{"name": "The Matrix"}</script>
<meta property="og:title" content="The Matrix (1999) ⭐ 8.7 | Action, Sci-Fi">
</head></html>`,
			want: "The Matrix",
			ok:   true,
		},
		{
			name: "og:title decoration stripped",
			body: `<html><head>
<meta property="og:title" content="The Matrix (1999) ⭐ 8.7 | Action, Sci-Fi">
</head></html>`,
			want: "The Matrix",
			ok:   true,
		},
		{
			name: "og:title without rating",
			body: `<html><head><meta property="og:title" content="Inception (2010)"></head></html>`,
			want: "Inception",
			ok:   true,
		},
		{
			name: "no title at all",
			body: `<html><head></head><body></body></html>`,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetailTitle(strings.NewReader(tt.body))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
