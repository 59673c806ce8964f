package cari

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Index is the facade of one remote index. Search results may be cached;
// browse pages never are.
type Index struct {
	client *Client
	name   string

	mu    sync.RWMutex
	cache Cache
}

// InitIndex returns the facade of the named index. The index starts with a
// search cache when the client was built with WithSearchCache or
// WithCustomSearchCache.
func (c *Client) InitIndex(name string) *Index {
	idx := &Index{client: c, name: name}
	if c.newSearchCache != nil {
		idx.cache = c.newSearchCache(name)
	}
	return idx
}

// Name returns the index name.
func (i *Index) Name() string {
	return i.name
}

func (i *Index) path(parts ...string) string {
	p := "/1/indexes/" + url.PathEscape(i.name)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// EnableSearchCache caches search results for ttl (DefaultCacheTTL when not
// positive), replacing any previous cache.
func (i *Index) EnableSearchCache(ttl time.Duration) {
	i.SetSearchCache(NewExpiringCache(ttl))
}

// SetSearchCache installs cache as the search cache; nil disables caching.
func (i *Index) SetSearchCache(cache Cache) {
	i.mu.Lock()
	old := i.cache
	i.cache = cache
	i.mu.Unlock()

	if old != nil && old != cache {
		old.Clear()
	}
}

// DisableSearchCache drops the search cache and everything in it.
func (i *Index) DisableSearchCache() {
	i.SetSearchCache(nil)
}

// ClearCache empties the search cache, if any.
func (i *Index) ClearCache() {
	if cache := i.searchCache(); cache != nil {
		cache.Clear()
		i.recordCacheSize(cache)
	}
}

func (i *Index) searchCache() Cache {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.cache
}

func (i *Index) recordCacheSize(cache Cache) {
	if sized, ok := cache.(interface{ Len() int }); ok {
		i.client.metrics.RecordCacheSize(i.name, sized.Len())
	}
}

// Search runs q against the index. With a search cache, a fresh cached
// response is delivered without any network attempt, still asynchronously
// and with the same Call contract; a successful response is cached.
func (i *Index) Search(ctx context.Context, q Query, handler Handler) *Call {
	op := readOp(http.MethodPost, i.path("query"), q.Record())

	cache := i.searchCache()
	if cache == nil {
		return i.client.Dispatch(ctx, op, handler)
	}

	key := CacheKey(op.Path, op.Body)
	if data, ok := cache.Get(key); ok {
		if rec, err := decodeRecord(data); err == nil {
			i.client.metrics.RecordCacheHit(i.name)
			if i.client.debugOn(i.client.debug.LogCache) {
				i.client.logger.Debug("Cache hit", "index", i.name, "cacheKey", key)
			}
			return i.client.resolved(ctx, rec, nil, handler)
		}
		cache.Delete(key)
	}

	i.client.metrics.RecordCacheMiss(i.name)
	if i.client.debugOn(i.client.debug.LogCache) {
		i.client.logger.Debug("Cache miss", "index", i.name, "cacheKey", key)
	}

	return i.client.Dispatch(ctx, op, func(res Record, err error) {
		if err == nil {
			if encoded, encErr := json.Marshal(res); encErr == nil {
				cache.Set(key, encoded)
				i.recordCacheSize(cache)
			}
		}
		if handler != nil {
			handler(res, err)
		}
	})
}

// SearchSync runs q and waits for the result.
func (i *Index) SearchSync(ctx context.Context, q Query) (Record, error) {
	return i.Search(ctx, q, nil).Wait(ctx)
}

// Browse fetches the first page of a browse over q.
func (i *Index) Browse(ctx context.Context, q Query, handler Handler) *Call {
	return i.BrowseFrom(ctx, q, "", handler)
}

// BrowseFrom fetches the page identified by cursor; an empty cursor fetches
// the first page.
func (i *Index) BrowseFrom(ctx context.Context, q Query, cursor string, handler Handler) *Call {
	body := q.Record()
	if cursor != "" {
		body["cursor"] = cursor
	}
	return i.client.Dispatch(ctx, readOp(http.MethodPost, i.path("browse"), body), handler)
}

// PageCursor returns the cursor of a browse page, or "" at the end of the
// content.
func PageCursor(page Record) string {
	cursor, _ := page["cursor"].(string)
	return cursor
}
