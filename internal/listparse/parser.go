// Package listparse turns list-aggregator HTML into a uniform item
// sequence, dispatching to the per-site parsers by URL host.
package listparse

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/plexlist/plexlist/internal/listparse/imdb"
	"github.com/plexlist/plexlist/internal/listparse/letterboxd"
)

// Source identifies a supported list-aggregator site.
type Source string

const (
	SourceIMDb       Source = "imdb"
	SourceLetterboxd Source = "letterboxd"
)

// ErrUnknownSource is returned when the URL host matches no known site.
var ErrUnknownSource = fmt.Errorf("unknown list source")

// Item is one raw list entry as parsed from a page. Title is empty when the
// page exposed no inline title; DetailURL then points at the page to fetch
// it from. Position is the 0-based order within the whole list.
type Item struct {
	ExternalID string
	Title      string
	DetailURL  string
	Position   int
}

// Page is one parsed list page.
type Page struct {
	Items     []Item
	ListTitle string
	MaxPage   int // 0 when the page exposed no pagination
}

// Detect maps a list URL to its source site.
func Detect(rawURL string) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse list url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.HasSuffix(host, "imdb.com"):
		return SourceIMDb, nil
	case strings.HasSuffix(host, "letterboxd.com"):
		return SourceLetterboxd, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownSource, host)
	}
}

var reLetterboxdPage = regexp.MustCompile(`/page/\d+/?$`)

// NormalizeBase strips any page-number segment from a list URL so pagination
// can be driven from a clean base.
func NormalizeBase(src Source, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""

	switch src {
	case SourceIMDb:
		q := u.Query()
		q.Del("page")
		u.RawQuery = q.Encode()
	case SourceLetterboxd:
		u.Path = reLetterboxdPage.ReplaceAllString(u.Path, "/")
	}
	return u.String()
}

// PageURL returns the URL of the nth page (1-based) of a normalized list URL.
func PageURL(src Source, base string, page int) string {
	if page <= 1 {
		return base
	}
	switch src {
	case SourceIMDb:
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + "page=" + strconv.Itoa(page)
	case SourceLetterboxd:
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		return base + "page/" + strconv.Itoa(page) + "/"
	}
	return base
}

// Parse parses one list page into the uniform Page shape. Item positions
// are page-local; the ingestion pipeline renumbers across pages.
func Parse(src Source, body []byte) (Page, error) {
	switch src {
	case SourceIMDb:
		res, err := imdb.ParseList(bytes.NewReader(body))
		if err != nil {
			return Page{}, err
		}
		page := Page{ListTitle: res.ListTitle, MaxPage: res.MaxPage}
		for i, it := range res.Items {
			page.Items = append(page.Items, Item{
				ExternalID: it.ID,
				Title:      it.Title,
				DetailURL:  it.URL,
				Position:   i,
			})
		}
		return page, nil
	case SourceLetterboxd:
		res, err := letterboxd.ParseList(bytes.NewReader(body))
		if err != nil {
			return Page{}, err
		}
		page := Page{ListTitle: res.ListTitle, MaxPage: res.MaxPage}
		for i, f := range res.Films {
			page.Items = append(page.Items, Item{
				ExternalID: f.ID,
				Title:      f.Title,
				DetailURL:  letterboxd.FilmURL(f.Slug),
				Position:   i,
			})
		}
		return page, nil
	default:
		return Page{}, fmt.Errorf("%w: %s", ErrUnknownSource, src)
	}
}

// DetailTitle extracts a display title from a per-item detail page.
func DetailTitle(src Source, body []byte) (string, bool) {
	switch src {
	case SourceIMDb:
		return imdb.DetailTitle(bytes.NewReader(body))
	case SourceLetterboxd:
		return letterboxd.DetailTitle(bytes.NewReader(body))
	default:
		return "", false
	}
}
