// Package catalog defines the media catalog boundary: the entries the
// matcher resolves against, the provider interface implemented by the Plex
// client, and the per-partition canonical-key index.
package catalog

import "context"

// EntryType classifies a catalog entry.
type EntryType string

const (
	EntryMovie EntryType = "movie"
	EntryShow  EntryType = "show"
	EntryOther EntryType = "other"
)

// Entry is a read-only view of one catalog item. Key is the stable identity
// used for match deduplication; the catalog owns the entry, we only hold
// references.
type Entry struct {
	Key   string
	Title string
	Type  EntryType
}

// Provider is the external catalog collaborator. Implementations perform the
// actual reads and the single playlist write; everything else in this module
// treats the catalog as opaque.
type Provider interface {
	// EnumeratePartition lists every entry in the named partition
	// (a library section) in catalog enumeration order.
	EnumeratePartition(ctx context.Context, partition string) ([]Entry, error)

	// SearchByTitle runs the catalog's native title search within a
	// partition. Used only as the last-resort match fallback.
	SearchByTitle(ctx context.Context, partition, title string) ([]Entry, error)

	// CreatePlaylist creates a playlist containing the given entry keys.
	CreatePlaylist(ctx context.Context, name string, keys []string) error
}
