package ebook

import (
	"sync"
	"time"
)

// archiveCache keeps recently parsed archives keyed by ebook ID. Purely an
// optimization: entries expire after a TTL and the oldest entry is evicted
// when the cache is full, so a disabled or cold cache changes nothing but
// latency.
type archiveCache struct {
	mu         sync.Mutex
	entries    map[int64]*cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type cacheEntry struct {
	index    *Index
	storedAt time.Time
}

func newArchiveCache(ttl time.Duration, maxEntries int) *archiveCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &archiveCache{
		entries:    make(map[int64]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *archiveCache) get(ebookID int64) (*Index, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[ebookID]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, ebookID)
		return nil, false
	}
	return entry.index, true
}

func (c *archiveCache) put(ebookID int64, index *Index) {
	if c == nil || index == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[ebookID]; !ok && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[ebookID] = &cacheEntry{index: index, storedAt: c.now()}
}

// invalidate drops the cached archive for an ebook. Called on ebook update
// and delete so stale archives are never served.
func (c *archiveCache) invalidate(ebookID int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ebookID)
}

func (c *archiveCache) evictOldestLocked() {
	var (
		oldestID int64
		oldestAt time.Time
		found    bool
	)
	for id, entry := range c.entries {
		if !found || entry.storedAt.Before(oldestAt) {
			oldestID = id
			oldestAt = entry.storedAt
			found = true
		}
	}
	if found {
		delete(c.entries, oldestID)
	}
}
