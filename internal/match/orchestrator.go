package match

import (
	"context"

	"github.com/plexlist/plexlist/internal/catalog"
)

const (
	// largeListThreshold is the input size at which MatchAll switches to
	// batched processing.
	largeListThreshold = 500
	// matchBatchSize bounds per-batch memory and paces progress reports.
	matchBatchSize = 100
)

// Progress describes one completed batch.
type Progress struct {
	Batch     int // 1-based batch number
	Batches   int
	Processed int // titles processed so far
	Matched   int // distinct entries matched so far
}

// MatchAll resolves every title against the matcher's index and returns the
// deduplicated matched entries plus the titles that resolved to nothing, in
// input order. The same catalog entry is never returned twice even when two
// raw titles resolve to it. Lists at or above the large-list threshold are
// processed in fixed-size batches; progress, when non-nil, is invoked after
// each batch. Cancelling ctx stops the run between titles, returning what
// has been accumulated so far.
func (m *Matcher) MatchAll(ctx context.Context, titles []string, progress func(Progress)) ([]catalog.Entry, []string) {
	batch := len(titles)
	if len(titles) >= largeListThreshold {
		batch = matchBatchSize
	}

	batches := 0
	if batch > 0 {
		batches = (len(titles) + batch - 1) / batch
	}

	var (
		matched   []catalog.Entry
		unmatched []string
		seen      = make(map[string]struct{})
	)

	for b := 0; b*batch < len(titles); b++ {
		lo := b * batch
		hi := min(lo+batch, len(titles))

		for _, title := range titles[lo:hi] {
			if ctx.Err() != nil {
				return matched, unmatched
			}

			res := m.MatchOne(ctx, title)
			if res.Method == MethodNone || res.Entry == nil {
				unmatched = append(unmatched, title)
				continue
			}
			if _, dup := seen[res.Entry.Key]; dup {
				continue
			}
			seen[res.Entry.Key] = struct{}{}
			matched = append(matched, *res.Entry)
		}

		if progress != nil {
			progress(Progress{
				Batch:     b + 1,
				Batches:   batches,
				Processed: hi,
				Matched:   len(matched),
			})
		}
	}

	return matched, unmatched
}
