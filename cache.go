package cari

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCacheTTL is the search cache TTL used when none is given.
const DefaultCacheTTL = 120 * time.Second

// Cache stores encoded search responses by key. Implementations must be safe
// for concurrent use and must never return an entry older than their TTL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
	Clear()
}

type cacheEntry struct {
	value      []byte
	insertedAt time.Time
}

// ExpiringCache is an in-memory Cache whose entries expire a fixed TTL after
// they were set. Expired entries are dropped lazily on Get and periodically by
// a background janitor.
type ExpiringCache struct {
	ttl   time.Duration
	store *gocache.Cache
	now   func() time.Time
}

// NewExpiringCache creates a cache with the given TTL; a non-positive ttl
// means DefaultCacheTTL.
func NewExpiringCache(ttl time.Duration) *ExpiringCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ExpiringCache{
		ttl:   ttl,
		store: gocache.New(ttl, janitorInterval(ttl)),
		now:   time.Now,
	}
}

func janitorInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return ttl
	}
	return time.Minute
}

// TTL returns the configured time-to-live.
func (c *ExpiringCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key if it is younger than the TTL.
func (c *ExpiringCache) Get(key string) ([]byte, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	entry := v.(cacheEntry)
	age := c.now().Sub(entry.insertedAt)
	if age < 0 || age >= c.ttl {
		c.store.Delete(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key, replacing any previous entry and restarting its
// TTL.
func (c *ExpiringCache) Set(key string, value []byte) {
	c.store.Set(key, cacheEntry{value: value, insertedAt: c.now()}, c.ttl)
}

// Delete removes a single entry.
func (c *ExpiringCache) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes every entry; the TTL is unchanged.
func (c *ExpiringCache) Clear() {
	c.store.Flush()
}

// Len returns the number of stored entries, expired ones not yet swept
// included.
func (c *ExpiringCache) Len() int {
	return c.store.ItemCount()
}

// CacheKey derives the cache key of a request from its path and body. JSON
// object keys are marshalled in sorted order, so equal bodies give equal keys.
func CacheKey(path string, body Record) string {
	encoded, err := json.Marshal(body)
	if err != nil {
		encoded = []byte("!" + err.Error())
	}
	sum := sha256.Sum256(encoded)
	return path + "#" + hex.EncodeToString(sum[:])
}
