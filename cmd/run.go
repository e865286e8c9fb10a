package cmd

import (
	"context"
	"fmt"

	"github.com/plexlist/plexlist/internal/catalog"
	"github.com/plexlist/plexlist/internal/config"
	"github.com/plexlist/plexlist/internal/fetcher"
	"github.com/plexlist/plexlist/internal/listsource"
	"github.com/plexlist/plexlist/internal/match"
	"github.com/plexlist/plexlist/internal/plexapi"
	"github.com/plexlist/plexlist/internal/titlecache"
)

// deps bundles the wired collaborators for one command invocation.
type deps struct {
	cfg      config.Config
	client   *plexapi.Client
	pipeline *listsource.Pipeline
	cache    *titlecache.Cache
}

func setup(configPath string) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	client := plexapi.NewClient(cfg.Plex.URL, cfg.Plex.Token, logger,
		plexapi.WithClientIdentifier(cfg.Plex.ClientID))

	f := fetcher.New(fetcher.Config{
		MaxAttempts: cfg.Fetch.MaxAttempts,
		Timeout:     cfg.Fetch.Timeout,
		MinInterval: cfg.Fetch.MinInterval,
		MaxJitter:   cfg.Fetch.MaxJitter,
	}, logger)

	opts := []listsource.Option{listsource.WithWorkers(cfg.Ingest.Workers)}

	var cache *titlecache.Cache
	if cfg.Ingest.CachePath != "" {
		cache, err = titlecache.Open(cfg.Ingest.CachePath)
		if err != nil {
			logger.Warn().Err(err).Msg("title cache unavailable, continuing without it")
		} else {
			opts = append(opts, listsource.WithCache(cache))
		}
	}

	return &deps{
		cfg:      cfg,
		client:   client,
		pipeline: listsource.New(f, logger, opts...),
		cache:    cache,
	}, nil
}

func (d *deps) close() {
	if err := d.cache.Close(); err != nil {
		logger.Warn().Err(err).Msg("closing title cache")
	}
}

// runOutput is the combined ingest and match result shared by the create
// and match commands.
type runOutput struct {
	ingest    listsource.Result
	index     *catalog.Index
	matched   []catalog.Entry
	unmatched []string
}

func ingestAndMatch(ctx context.Context, d *deps, listURL, library string) (runOutput, error) {
	var out runOutput

	fmt.Println("--- Fetching List ---")

	ingest, err := d.pipeline.Ingest(ctx, listURL)
	if err != nil {
		return out, fmt.Errorf("ingest list: %w", err)
	}
	out.ingest = ingest
	fmt.Printf("Got %d titles from %q (%s).\n", len(ingest.Titles), ingest.ListTitle, ingest.Diagnostic)

	fmt.Println("--- Building Catalog Index ---")

	idx, err := catalog.NewIndexCache(d.client).Get(ctx, library)
	if err != nil {
		// Matching proceeds against the empty index and finds nothing;
		// the summary makes the outcome visible.
		logger.Warn().Err(err).Str("library", library).Msg("catalog unavailable")
	}
	out.index = idx
	fmt.Printf("Indexed %d canonical keys.\n", idx.Len())

	fmt.Println("--- Matching Titles ---")

	searcher := func(ctx context.Context, title string) ([]catalog.Entry, error) {
		return d.client.SearchByTitle(ctx, library, title)
	}
	m := match.New(idx, searcher, logger)

	titles := make([]string, len(ingest.Titles))
	for i, t := range ingest.Titles {
		titles[i] = t.Title
	}

	out.matched, out.unmatched = m.MatchAll(ctx, titles, func(p match.Progress) {
		if p.Batches > 1 {
			fmt.Printf("Batch %d/%d: %d matched after %d titles.\n", p.Batch, p.Batches, p.Matched, p.Processed)
		}
	})
	fmt.Printf("Matched %d entries, %d titles unmatched.\n", len(out.matched), len(out.unmatched))

	return out, nil
}
