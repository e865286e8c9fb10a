// Package match resolves raw list titles to catalog entries using exact
// canonical-key lookup, a bounded similarity scan, and the catalog's native
// search as a last resort.
package match

import (
	"context"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog"

	"github.com/plexlist/plexlist/internal/catalog"
	"github.com/plexlist/plexlist/internal/titlenorm"
)

// Method records which resolution step produced a match.
type Method string

const (
	MethodExact    Method = "exact"
	MethodFuzzy    Method = "fuzzy"
	MethodFallback Method = "fallback"
	MethodNone     Method = "none"
)

// fuzzyThreshold is the minimum similarity ratio for a non-exact match.
const fuzzyThreshold = 0.88

// Result is the outcome of matching a single raw title.
type Result struct {
	Title  string
	Entry  *catalog.Entry
	Method Method
	Score  float64
}

// Searcher runs the catalog's native title search. Errors are treated as
// "no fallback match" by the matcher.
type Searcher func(ctx context.Context, title string) ([]catalog.Entry, error)

// Matcher resolves titles against one partition index.
type Matcher struct {
	index  *catalog.Index
	search Searcher
	logger zerolog.Logger
}

// New returns a Matcher over index. search may be nil to disable the
// fallback step.
func New(index *catalog.Index, search Searcher, logger zerolog.Logger) *Matcher {
	return &Matcher{index: index, search: search, logger: logger}
}

// MatchOne resolves one raw title. Resolution order is exact, fuzzy,
// fallback; the first step that produces an entry wins. Titles with no
// canonical form (non-Latin scripts survive no key) skip the index steps but
// still reach the fallback search, which compares raw titles directly.
func (m *Matcher) MatchOne(ctx context.Context, raw string) Result {
	res := Result{Title: raw, Method: MethodNone}

	if strings.TrimSpace(raw) == "" {
		return res
	}

	forms := titlenorm.Forms(raw)

	// Exact: first form in canonical order, first entry under that key.
	for _, form := range forms {
		if entries := m.index.Lookup(form); len(entries) > 0 {
			res.Entry = &entries[0]
			res.Method = MethodExact
			res.Score = 1
			return res
		}
	}

	if len(forms) > 0 {
		if key, score, ok := m.bestFuzzyKey(forms[0]); ok {
			entries := m.index.Lookup(key)
			res.Entry = &entries[0]
			res.Method = MethodFuzzy
			res.Score = score
			m.logger.Debug().
				Str("title", raw).
				Str("key", key).
				Float64("score", score).
				Msg("fuzzy title match")
			return res
		}
	}

	if entry, ok := m.fallbackSearch(ctx, raw, forms); ok {
		res.Entry = entry
		res.Method = MethodFallback
		return res
	}

	return res
}

// bestFuzzyKey scans the index keys for the highest-ratio candidate against
// the base form. When the base form starts with a letter, the scan is
// restricted to keys sharing that first letter; this trades recall for speed
// on large catalogs and is an optimization only, not a correctness rule.
// Keys are visited in lexicographic order, so an equal-score tie resolves to
// the lexicographically smallest key.
func (m *Matcher) bestFuzzyKey(target string) (string, float64, bool) {
	var (
		bestKey   string
		bestScore float64
		found     bool
	)

	first := target[0]
	restrict := first >= 'a' && first <= 'z'

	for _, key := range m.index.Keys() {
		if restrict && (key == "" || key[0] != first) {
			continue
		}
		score := similarityRatio(target, key)
		if !found || score > bestScore {
			bestKey, bestScore, found = key, score, true
		}
	}

	if !found || bestScore < fuzzyThreshold {
		return "", 0, false
	}
	return bestKey, bestScore, true
}

// fallbackSearch queries the catalog directly and accepts the first result
// whose title equals raw case-insensitively or shares a canonical form with
// it. Search errors are swallowed; the fallback is best-effort.
func (m *Matcher) fallbackSearch(ctx context.Context, raw string, forms []string) (*catalog.Entry, bool) {
	if m.search == nil {
		return nil, false
	}

	results, err := m.search(ctx, raw)
	if err != nil {
		m.logger.Debug().Err(err).Str("title", raw).Msg("fallback search failed")
		return nil, false
	}

	want := make(map[string]struct{}, len(forms))
	for _, f := range forms {
		want[f] = struct{}{}
	}

	for i := range results {
		if strings.EqualFold(results[i].Title, raw) {
			return &results[i], true
		}
		for _, f := range titlenorm.Forms(results[i].Title) {
			if _, ok := want[f]; ok {
				return &results[i], true
			}
		}
	}
	return nil, false
}

// similarityRatio is a normalized longest-common-subsequence ratio in [0,1]:
// 2*LCS(a,b) / (len(a)+len(b)). Canonical forms are ASCII, so byte lengths
// equal rune lengths here.
func similarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	lcs := edlib.LCS(a, b)
	return 2 * float64(lcs) / float64(len(a)+len(b))
}
