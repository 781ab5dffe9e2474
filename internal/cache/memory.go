package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process cache with TTL and LRU eviction
type MemoryCache struct {
	mu          sync.Mutex
	items       map[string]*list.Element
	lru         *list.List
	maxEntries  int
	ttl         time.Duration
	stats       Stats
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// Stats tracks cache activity
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Expired   int64
	Entries   int
}

// MemoryConfig contains memory cache configuration
type MemoryConfig struct {
	MaxEntries      int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

// NewMemoryCache creates a cache and starts its expiry sweep
func NewMemoryCache(config MemoryConfig) *MemoryCache {
	if config.MaxEntries <= 0 {
		config.MaxEntries = 16
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}

	c := &MemoryCache{
		items:       make(map[string]*list.Element),
		lru:         list.New(),
		maxEntries:  config.MaxEntries,
		ttl:         config.DefaultTTL,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	go c.cleanupRoutine(config.CleanupInterval)

	return c
}

// Get returns a copy of the stored value
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false, nil
	}

	entry := el.Value.(*memoryEntry)
	if c.expired(entry) {
		c.remove(el)
		c.stats.Expired++
		c.stats.Misses++
		return nil, false, nil
	}

	c.lru.MoveToFront(el)
	c.stats.Hits++
	return append([]byte(nil), entry.value...), true, nil
}

// Set stores value; a zero ttl uses the configured default, and a zero
// default never expires
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	value = append([]byte(nil), value...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.value = value
		entry.expiresAt = expiresAt
		c.lru.MoveToFront(el)
		return nil
	}

	for c.lru.Len() >= c.maxEntries {
		c.remove(c.lru.Back())
		c.stats.Evictions++
	}

	c.items[key] = c.lru.PushFront(&memoryEntry{key: key, value: value, expiresAt: expiresAt})
	return nil
}

// Delete removes key and reports whether it was present
func (c *MemoryCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
		return true
	}
	return false
}

// Stats returns a snapshot of the counters
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = c.lru.Len()
	return s
}

// Close stops the expiry sweep
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
	return nil
}

// remove drops an element; caller must hold the lock
func (c *MemoryCache) remove(el *list.Element) {
	entry := c.lru.Remove(el).(*memoryEntry)
	delete(c.items, entry.key)
}

func (c *MemoryCache) expired(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt)
}

func (c *MemoryCache) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryCache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*memoryEntry)) {
			c.remove(el)
			c.stats.Expired++
		}
		el = prev
	}
}
