// Package imdb extracts list items from IMDb list pages. IMDb embeds the
// list as JSON-LD; anchors carrying /title/ttNNN/ hrefs are the fallback
// when the script block is missing or malformed.
package imdb

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Item is one list entry. Title may be empty when the page only exposed the
// title id; the caller resolves those from the detail page.
type Item struct {
	ID    string
	Title string
	URL   string
}

// Result is one parsed list page.
type Result struct {
	Items     []Item
	ListTitle string
	MaxPage   int
}

var (
	reTitleID    = regexp.MustCompile(`/title/(tt\d+)`)
	reRankPrefix = regexp.MustCompile(`^\d+\.\s*`)
	rePageParam  = regexp.MustCompile(`[?&]page=(\d+)`)
	reYearSuffix = regexp.MustCompile(`\s*\(\d{4}\)$`)
)

// ldList mirrors the slice of the JSON-LD payload we care about.
type ldList struct {
	About struct {
		ItemListElement []struct {
			URL  string `json:"url"`
			Item struct {
				Name string `json:"name"`
				URL  string `json:"url"`
			} `json:"item"`
		} `json:"itemListElement"`
	} `json:"about"`
}

// ParseList parses one IMDb list page.
func ParseList(r io.Reader) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse list page: %w", err)
	}

	res := Result{
		ListTitle: listTitle(doc),
		MaxPage:   maxPage(doc),
	}

	res.Items = itemsFromJSONLD(doc)
	if len(res.Items) == 0 {
		res.Items = itemsFromAnchors(doc)
	}
	return res, nil
}

func itemsFromJSONLD(doc *goquery.Document) []Item {
	var items []Item
	seen := make(map[string]struct{})

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload ldList
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return true
		}
		for _, el := range payload.About.ItemListElement {
			url := el.URL
			if url == "" {
				url = el.Item.URL
			}
			m := reTitleID.FindStringSubmatch(url)
			if m == nil {
				continue
			}
			id := m[1]
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			items = append(items, Item{
				ID:    id,
				Title: strings.TrimSpace(el.Item.Name),
				URL:   "https://www.imdb.com/title/" + id + "/",
			})
		}
		return len(items) == 0
	})

	return items
}

func itemsFromAnchors(doc *goquery.Document) []Item {
	var items []Item
	seen := make(map[string]struct{})

	doc.Find(`a[href*="/title/"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		m := reTitleID.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id := m[1]
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		// Anchor text carries a "12. Title" rank prefix on list pages.
		title := reRankPrefix.ReplaceAllString(strings.TrimSpace(s.Text()), "")
		items = append(items, Item{
			ID:    id,
			Title: title,
			URL:   "https://www.imdb.com/title/" + id + "/",
		})
	})

	return items
}

func listTitle(doc *goquery.Document) string {
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}

func maxPage(doc *goquery.Document) int {
	highest := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if m := rePageParam.FindStringSubmatch(href); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
				highest = n
			}
		}
	})
	return highest
}

// DetailTitle extracts the display title from an IMDb title page, preferring
// the JSON-LD name over the decorated og:title.
func DetailTitle(r io.Reader) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", false
	}

	var name string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var payload struct {
			Name string `json:"name"`
		}
		if json.Unmarshal([]byte(s.Text()), &payload) == nil && payload.Name != "" {
			name = payload.Name
			return false
		}
		return true
	})
	if name != "" {
		return strings.TrimSpace(name), true
	}

	og, ok := doc.Find(`meta[property="og:title"]`).Attr("content")
	if !ok {
		return "", false
	}
	// og:title looks like "The Matrix (1999) ⭐ 8.7 | Action, Sci-Fi".
	og, _, _ = strings.Cut(og, "⭐")
	og, _, _ = strings.Cut(og, "|")
	og = reYearSuffix.ReplaceAllString(strings.TrimSpace(og), "")
	og = strings.TrimSpace(og)
	return og, og != ""
}
