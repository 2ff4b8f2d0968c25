package mapbox

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/metar-etl/internal/domain"
	"github.com/couchcryptid/metar-etl/internal/observability"
)

// CachedLocator wraps a StationLocator with an in-memory LRU cache keyed by
// ICAO identifier. Station positions do not move, so entries never expire.
type CachedLocator struct {
	inner   domain.StationLocator
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedLocator creates a cache decorator around a locator.
func NewCachedLocator(inner domain.StationLocator, maxEntries int, metrics *observability.Metrics) *CachedLocator {
	return &CachedLocator{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedLocator) LocateStation(ctx context.Context, icao string) (domain.StationLocation, error) {
	key := strings.ToUpper(icao)
	if loc, ok := c.cache.get(key); ok {
		c.metrics.StationCache.WithLabelValues("hit").Inc()
		return loc, nil
	}
	c.metrics.StationCache.WithLabelValues("miss").Inc()

	loc, err := c.inner.LocateStation(ctx, key)
	if err != nil {
		return loc, err
	}
	// Only cache found stations so a transient "not found" can be retried.
	if loc.Lat != 0 || loc.Lon != 0 {
		c.cache.put(key, loc)
	}
	return loc, nil
}

// lruCache is a thread-safe LRU cache of station locations.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type entry struct {
	key   string
	value domain.StationLocation
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (domain.StationLocation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.StationLocation{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

func (c *lruCache) put(key string, value domain.StationLocation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
