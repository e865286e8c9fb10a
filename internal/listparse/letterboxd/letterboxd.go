// Package letterboxd extracts list items from Letterboxd list pages, which
// mark each entry with a film-poster div carrying data-film-slug and
// data-film-id attributes.
package letterboxd

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Film is one list entry. Title comes from the poster image's alt text when
// present; otherwise the detail page is consulted.
type Film struct {
	ID    string
	Slug  string
	Title string
}

// Result is one parsed list page.
type Result struct {
	Films     []Film
	ListTitle string
	MaxPage   int
}

var reYearSuffix = regexp.MustCompile(`\s*\(\d{4}\)$`)

// ParseList parses one Letterboxd list page.
func ParseList(r io.Reader) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse list page: %w", err)
	}

	res := Result{
		ListTitle: listTitle(doc),
		MaxPage:   maxPage(doc),
	}

	seen := make(map[string]struct{})
	doc.Find("div.film-poster").Each(func(_ int, s *goquery.Selection) {
		slug, _ := s.Attr("data-film-slug")
		id, _ := s.Attr("data-film-id")
		slug = strings.TrimSpace(slug)
		id = strings.TrimSpace(id)
		if slug == "" || id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		title, _ := s.Find("img").Attr("alt")
		res.Films = append(res.Films, Film{
			ID:    id,
			Slug:  slug,
			Title: strings.TrimSpace(title),
		})
	})

	return res, nil
}

// FilmURL returns the detail page URL for a film slug.
func FilmURL(slug string) string {
	return "https://letterboxd.com/film/" + slug + "/"
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
	doc.Find("li.paginate-page a").Each(func(_ int, s *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(s.Text())); err == nil && n > highest {
			highest = n
		}
	})
	return highest
}

// DetailTitle extracts the film title from a Letterboxd film page's og:title
// meta tag, dropping the trailing release year.
func DetailTitle(r io.Reader) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", false
	}
	og, ok := doc.Find(`meta[property="og:title"]`).Attr("content")
	if !ok {
		return "", false
	}
	title := reYearSuffix.ReplaceAllString(strings.TrimSpace(og), "")
	title = strings.TrimSpace(title)
	return title, title != ""
}
