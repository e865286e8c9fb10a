package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	entries map[string][]Entry
	err     error
	calls   int
}

func (f *fakeProvider) EnumeratePartition(_ context.Context, partition string) ([]Entry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[partition], nil
}

func (f *fakeProvider) SearchByTitle(context.Context, string, string) ([]Entry, error) {
	return nil, nil
}

func (f *fakeProvider) CreatePlaylist(context.Context, string, []string) error {
	return nil
}

func TestBuildIndex(t *testing.T) {
	provider := &fakeProvider{entries: map[string][]Entry{
		"Movies": {
			{Key: "1", Title: "The Matrix", Type: EntryMovie},
			{Key: "2", Title: "Inception", Type: EntryMovie},
			{Key: "3", Title: "Matrix, The", Type: EntryMovie},
		},
	}}

	idx, err := BuildIndex(context.Background(), provider, "Movies")
	require.NoError(t, err)

	// Both article styles index under the same keys, enumeration order
	// preserved.
	entries := idx.Lookup("the matrix")
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].Key)
	assert.Equal(t, "3", entries[1].Key)

	assert.Len(t, idx.Lookup("matrix"), 2)
	assert.Len(t, idx.Lookup("inception"), 1)
	assert.Empty(t, idx.Lookup("dune"))

	assert.IsIncreasing(t, idx.Keys())
}

func TestBuildIndexProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("server down")}

	idx, err := BuildIndex(context.Background(), provider, "Movies")
	require.Error(t, err)

	// The index is still queryable, it just matches nothing.
	require.NotNil(t, idx)
	assert.Zero(t, idx.Len())
	assert.Empty(t, idx.Lookup("anything"))
}

func TestIndexCache(t *testing.T) {
	provider := &fakeProvider{entries: map[string][]Entry{
		"Movies": {{Key: "1", Title: "Dune", Type: EntryMovie}},
	}}
	cache := NewIndexCache(provider)

	first, err := cache.Get(context.Background(), "Movies")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "Movies")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, provider.calls)

	cache.Invalidate("Movies")
	_, err = cache.Get(context.Background(), "Movies")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestIndexCacheDoesNotCacheFailures(t *testing.T) {
	provider := &fakeProvider{err: errors.New("unreachable")}
	cache := NewIndexCache(provider)

	_, err := cache.Get(context.Background(), "Movies")
	require.Error(t, err)

	provider.err = nil
	provider.entries = map[string][]Entry{"Movies": {{Key: "1", Title: "Dune"}}}

	idx, err := cache.Get(context.Background(), "Movies")
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}
