// Package listsource orchestrates list ingestion: paginated list-page
// retrieval, per-item detail fetches for entries without inline titles, and
// assembly of the ordered resolved-title sequence.
package listsource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/plexlist/plexlist/internal/fetcher"
	"github.com/plexlist/plexlist/internal/listparse"
	"github.com/plexlist/plexlist/internal/titlecache"
)

const (
	// maxPages caps pagination to bound worst-case cost on hostile or
	// miscounted lists.
	maxPages = 30
	// defaultWorkers bounds concurrent detail fetches.
	defaultWorkers = 6
)

// ErrSourceUnreachable marks a first-page fetch failure: with no list there
// is nothing to match, so ingestion stops here.
var ErrSourceUnreachable = errors.New("list source unreachable")

// Getter fetches one URL. Satisfied by *fetcher.Fetcher.
type Getter interface {
	Fetch(ctx context.Context, url string) fetcher.Outcome
}

// TitleOrigin records where a resolved title came from.
type TitleOrigin string

const (
	OriginInline      TitleOrigin = "inline"
	OriginDetailFetch TitleOrigin = "detail_fetch"
)

// ResolvedTitle is one list entry with a confirmed, non-empty title.
type ResolvedTitle struct {
	ExternalID string
	Title      string
	Origin     TitleOrigin
	Position   int
	DetailURL  string
}

// Result is the outcome of one ingestion run.
type Result struct {
	Titles        []ResolvedTitle
	ListTitle     string
	ItemsParsed   int
	PagesFetched  int
	FetchFailures []string // detail URLs that exhausted retries
	Diagnostic    string
}

// Pipeline ingests one list per call. Pages are fetched sequentially; detail
// pages concurrently through a bounded worker pool.
type Pipeline struct {
	fetch   Getter
	cache   *titlecache.Cache
	workers int
	logger  zerolog.Logger
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the detail-fetch pool size.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithCache attaches a persistent resolved-title cache.
func WithCache(cache *titlecache.Cache) Option {
	return func(p *Pipeline) { p.cache = cache }
}

// New returns a Pipeline fetching through fetch.
func New(fetch Getter, logger zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetch:   fetch,
		workers: defaultWorkers,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest fetches and resolves the list at listURL. Per-item failures are
// non-fatal and reported in the result; only an unreachable first page (or
// an unrecognized source) returns an error.
func (p *Pipeline) Ingest(ctx context.Context, listURL string) (Result, error) {
	src, err := listparse.Detect(listURL)
	if err != nil {
		return Result{}, err
	}
	base := listparse.NormalizeBase(src, listURL)

	items, listTitle, pages, err := p.collectPages(ctx, src, base)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		ListTitle:    listTitle,
		ItemsParsed:  len(items),
		PagesFetched: pages,
	}
	if res.ListTitle == "" {
		res.ListTitle = titleFromSlug(base)
	}

	res.Titles, res.FetchFailures = p.resolveTitles(ctx, src, items)
	res.Diagnostic = fmt.Sprintf("%d pages, %d items parsed, %d titled, %d detail failures",
		res.PagesFetched, res.ItemsParsed, len(res.Titles), len(res.FetchFailures))

	return res, nil
}

// collectPages walks the list pagination, deduplicating items by external id
// in first-seen order. A later-page failure or an empty page stops
// pagination without failing the run.
func (p *Pipeline) collectPages(ctx context.Context, src listparse.Source, base string) ([]listparse.Item, string, int, error) {
	var (
		items     []listparse.Item
		listTitle string
		seen      = make(map[string]struct{})
	)

	limit := 1
	pages := 0

	for page := 1; page <= limit; page++ {
		out := p.fetch.Fetch(ctx, listparse.PageURL(src, base, page))
		if !out.OK() {
			if page == 1 {
				return nil, "", 0, fmt.Errorf("%w: %s (%s)", ErrSourceUnreachable, base, out.Status)
			}
			p.logger.Warn().Str("url", out.URL).Str("status", string(out.Status)).Msg("list page fetch failed, stopping pagination")
			break
		}

		parsed, err := listparse.Parse(src, out.Payload)
		if err != nil {
			if page == 1 {
				return nil, "", 0, fmt.Errorf("%w: %s: %v", ErrSourceUnreachable, base, err)
			}
			break
		}
		pages++

		if page == 1 {
			listTitle = parsed.ListTitle
			if parsed.MaxPage > 1 {
				limit = min(parsed.MaxPage, maxPages)
			}
		}
		if len(parsed.Items) == 0 {
			break
		}

		for _, it := range parsed.Items {
			if _, dup := seen[it.ExternalID]; dup {
				continue
			}
			seen[it.ExternalID] = struct{}{}
			it.Position = len(items)
			items = append(items, it)
		}
	}

	return items, listTitle, pages, nil
}

// resolveTitles merges inline titles with concurrently fetched detail-page
// titles, preserving list order. Items whose detail fetch fails are dropped
// from the sequence and reported as failures.
func (p *Pipeline) resolveTitles(ctx context.Context, src listparse.Source, items []listparse.Item) ([]ResolvedTitle, []string) {
	type slot struct {
		title  string
		origin TitleOrigin
		failed string // detail URL on failure
	}
	slots := make([]slot, len(items))

	var g errgroup.Group
	g.SetLimit(p.workers)
	var mu sync.Mutex
	var cachePutErr error

	for i, it := range items {
		i, it := i, it
		if it.Title != "" {
			slots[i] = slot{title: it.Title, origin: OriginInline}
			continue
		}
		if cached, ok := p.cache.Get(string(src), it.ExternalID); ok {
			slots[i] = slot{title: cached, origin: OriginDetailFetch}
			continue
		}
		if it.DetailURL == "" {
			slots[i] = slot{failed: "missing detail url for " + it.ExternalID}
			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				slots[i] = slot{failed: it.DetailURL}
				return nil
			}
			out := p.fetch.Fetch(ctx, it.DetailURL)
			if !out.OK() {
				slots[i] = slot{failed: it.DetailURL}
				return nil
			}
			title, ok := listparse.DetailTitle(src, out.Payload)
			if !ok {
				slots[i] = slot{failed: it.DetailURL}
				return nil
			}
			slots[i] = slot{title: title, origin: OriginDetailFetch}
			if err := p.cache.Put(string(src), it.ExternalID, title); err != nil {
				mu.Lock()
				cachePutErr = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if cachePutErr != nil {
		p.logger.Warn().Err(cachePutErr).Msg("title cache write failed")
	}

	var (
		titles   []ResolvedTitle
		failures []string
	)
	for i, s := range slots {
		if s.failed != "" {
			failures = append(failures, s.failed)
			continue
		}
		titles = append(titles, ResolvedTitle{
			ExternalID: items[i].ExternalID,
			Title:      s.title,
			Origin:     s.origin,
			Position:   items[i].Position,
			DetailURL:  items[i].DetailURL,
		})
	}
	return titles, failures
}

// titleFromSlug derives a readable list title from the last URL path
// segment, title-cased.
func titleFromSlug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segs := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segs) == 0 {
		return ""
	}
	slug := segs[len(segs)-1]
	slug = strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(slug)
}
