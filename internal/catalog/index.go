package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/plexlist/plexlist/internal/titlenorm"
)

// Index maps canonical title forms to the entries that produced them.
// Multiple entries may share a key; enumeration order is preserved so
// first-seen-wins tie-breaking stays with the matcher. An Index is immutable
// once built and safe for concurrent readers.
type Index struct {
	entries map[string][]Entry
	keys    []string
}

// BuildIndex enumerates one partition and indexes every entry under all of
// its canonical forms. A provider failure yields an empty, queryable index
// alongside the error so matching can proceed and simply find nothing.
func BuildIndex(ctx context.Context, provider Provider, partition string) (*Index, error) {
	idx := &Index{entries: make(map[string][]Entry)}

	all, err := provider.EnumeratePartition(ctx, partition)
	if err != nil {
		return idx, fmt.Errorf("enumerate partition %q: %w", partition, err)
	}

	for _, e := range all {
		for _, form := range titlenorm.Forms(e.Title) {
			idx.entries[form] = append(idx.entries[form], e)
		}
	}

	idx.keys = make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		idx.keys = append(idx.keys, k)
	}
	// Lexicographic key order makes fuzzy candidate iteration, and therefore
	// equal-score tie-breaking, deterministic.
	sort.Strings(idx.keys)

	return idx, nil
}

// Lookup returns the entries indexed under one canonical form, in
// enumeration order.
func (x *Index) Lookup(form string) []Entry {
	return x.entries[form]
}

// Keys returns all index keys in lexicographic order. Callers must not
// mutate the returned slice.
func (x *Index) Keys() []string {
	return x.keys
}

// Len reports the number of distinct canonical keys.
func (x *Index) Len() int {
	return len(x.keys)
}

// IndexCache builds partition indexes lazily and retains them for the
// lifetime of the matching session. A failed build is not cached, so a
// later retry can see a recovered catalog.
type IndexCache struct {
	provider Provider

	mu     sync.Mutex
	byName map[string]*Index
}

// NewIndexCache returns a cache backed by the given provider.
func NewIndexCache(provider Provider) *IndexCache {
	return &IndexCache{
		provider: provider,
		byName:   make(map[string]*Index),
	}
}

// Get returns the cached index for partition, building it on first use.
// Only fully built indexes are ever stored or returned.
func (c *IndexCache) Get(ctx context.Context, partition string) (*Index, error) {
	c.mu.Lock()
	if idx, ok := c.byName[partition]; ok {
		c.mu.Unlock()
		return idx, nil
	}
	c.mu.Unlock()

	idx, err := BuildIndex(ctx, c.provider, partition)
	if err != nil {
		return idx, err
	}

	c.mu.Lock()
	c.byName[partition] = idx
	c.mu.Unlock()
	return idx, nil
}

// Invalidate drops the cached index for partition, forcing a rebuild on the
// next Get. Used when switching libraries mid-session.
func (c *IndexCache) Invalidate(partition string) {
	c.mu.Lock()
	delete(c.byName, partition)
	c.mu.Unlock()
}
