package match

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAllSmallListSingleBatch(t *testing.T) {
	idx := buildIndex(t, "The Matrix", "Inception", "Dune")
	m := New(idx, nil, zerolog.Nop())

	var reports []Progress
	matched, unmatched := m.MatchAll(context.Background(),
		[]string{"Inception", "Nonexistent Film", "The Matrix"},
		func(p Progress) { reports = append(reports, p) })

	require.Len(t, matched, 2)
	assert.Equal(t, "Inception", matched[0].Title)
	assert.Equal(t, "The Matrix", matched[1].Title)
	assert.Equal(t, []string{"Nonexistent Film"}, unmatched)

	require.Len(t, reports, 1)
	assert.Equal(t, Progress{Batch: 1, Batches: 1, Processed: 3, Matched: 2}, reports[0])
}

func TestMatchAllDeduplicatesEntries(t *testing.T) {
	m := New(buildIndex(t, "The Matrix"), nil, zerolog.Nop())

	matched, unmatched := m.MatchAll(context.Background(),
		[]string{"The Matrix", "Matrix, The", "the matrix"}, nil)

	assert.Len(t, matched, 1)
	assert.Empty(t, unmatched)
}

func TestMatchAllLargeListBatches(t *testing.T) {
	titles := make([]string, 0, 1200)
	catalogTitles := make([]string, 0, 600)
	for i := 0; i < 600; i++ {
		title := fmt.Sprintf("Film %04d", i)
		catalogTitles = append(catalogTitles, title)
		titles = append(titles, title, title)
	}
	m := New(buildIndex(t, catalogTitles...), nil, zerolog.Nop())

	var reports []Progress
	matched, unmatched := m.MatchAll(context.Background(), titles,
		func(p Progress) { reports = append(reports, p) })

	assert.Len(t, matched, 600)
	assert.Empty(t, unmatched)

	require.Len(t, reports, 12)
	for i, p := range reports {
		assert.Equal(t, i+1, p.Batch)
		assert.Equal(t, 12, p.Batches)
		assert.Equal(t, (i+1)*100, p.Processed)
	}
	assert.Equal(t, 600, reports[11].Matched)
}

func TestMatchAllBatchingDoesNotChangeResults(t *testing.T) {
	catalogTitles := make([]string, 0, 400)
	for i := 0; i < 400; i++ {
		catalogTitles = append(catalogTitles, fmt.Sprintf("Film %04d", i))
	}
	idx := buildIndex(t, catalogTitles...)
	m := New(idx, nil, zerolog.Nop())

	titles := make([]string, 0, 600)
	for i := 0; i < 600; i++ {
		titles = append(titles, fmt.Sprintf("Film %04d", i))
	}

	matched, unmatched := m.MatchAll(context.Background(), titles, nil)

	var wantMatched, wantUnmatched []string
	seen := make(map[string]struct{})
	for _, title := range titles {
		res := m.MatchOne(context.Background(), title)
		if res.Entry == nil {
			wantUnmatched = append(wantUnmatched, title)
			continue
		}
		if _, dup := seen[res.Entry.Key]; dup {
			continue
		}
		seen[res.Entry.Key] = struct{}{}
		wantMatched = append(wantMatched, res.Entry.Title)
	}

	gotMatched := make([]string, len(matched))
	for i, e := range matched {
		gotMatched[i] = e.Title
	}
	assert.Equal(t, wantMatched, gotMatched)
	assert.Equal(t, wantUnmatched, unmatched)
}

func TestMatchAllCancelledContext(t *testing.T) {
	m := New(buildIndex(t, "The Matrix"), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matched, unmatched := m.MatchAll(ctx, []string{"The Matrix"}, nil)
	assert.Empty(t, matched)
	assert.Empty(t, unmatched)
}

func TestMatchAllEmptyInput(t *testing.T) {
	m := New(buildIndex(t, "The Matrix"), nil, zerolog.Nop())

	var reports []Progress
	matched, unmatched := m.MatchAll(context.Background(), nil,
		func(p Progress) { reports = append(reports, p) })

	assert.Empty(t, matched)
	assert.Empty(t, unmatched)
	assert.Empty(t, reports)
}
