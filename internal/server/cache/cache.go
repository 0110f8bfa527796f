// Package cache holds rendered API responses between sync passes. Entries
// expire on their own, and the server flushes everything after each pass
// so readers never see data older than the last reconciliation.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache wraps go-cache.
type Cache struct {
	store *gocache.Cache
}

// New creates a cache whose entries live for ttl; expired entries are
// swept every cleanupInterval.
func New(ttl, cleanupInterval time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, cleanupInterval)}
}

// ProductsKey is the key for a products listing with the given query.
func ProductsKey(rawQuery string) string { return "products:" + rawQuery }

// EventsKey is the key for a stock-out listing with the given query.
func EventsKey(rawQuery string) string { return "stock-outs:" + rawQuery }

// Get retrieves a value.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// Flush drops every entry.
func (c *Cache) Flush() {
	c.store.Flush()
}

// ItemCount returns the number of cached entries, expired ones included
// until the next sweep.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
