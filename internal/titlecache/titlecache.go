// Package titlecache persists resolved titles keyed by source and external
// id, so repeat runs skip detail fetches for items already seen.
package titlecache

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketTitles = []byte("titles")

// Cache is a small bbolt-backed key/value store. A nil *Cache is valid and
// behaves as an always-miss cache, so callers can treat caching as optional.
type Cache struct {
	db *bolt.DB
}

// Open opens (or creates) the cache file at path.
func Open(path string) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open title cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTitles)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init title cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the cached title for (source, id), if any.
func (c *Cache) Get(source, id string) (string, bool) {
	if c == nil {
		return "", false
	}
	var title string
	_ = c.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketTitles).Get(key(source, id)); v != nil {
			title = string(v)
		}
		return nil
	})
	return title, title != ""
}

// Put stores a resolved title. Empty titles are not stored.
func (c *Cache) Put(source, id, title string) error {
	if c == nil || title == "" {
		return nil
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTitles).Put(key(source, id), []byte(title))
	})
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

func key(source, id string) []byte {
	return []byte(source + "/" + id)
}
