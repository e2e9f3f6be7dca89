package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry represents an item in the cache
type entry[V any] struct {
	key        string
	value      V
	storedAt   time.Time
	expiration time.Time
}

var _ Cache[int] = (*Memory[int])(nil)

// Memory is an in-memory LRU cache with per-entry TTL.
type Memory[V any] struct {
	maxSize int
	now     func() time.Time

	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List

	stopCh    chan struct{}
	closeOnce sync.Once
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often expired entries are swept. Zero
// disables the sweeper; expired entries are still dropped on read.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.cleanupInterval = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// NewMemory creates a cache holding at most maxSize entries.
func NewMemory[V any](maxSize int, opts ...MemoryOption) *Memory[V] {
	if maxSize <= 0 {
		maxSize = 1000
	}
	o := memoryOptions{cleanupInterval: time.Minute, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Memory[V]{
		maxSize: maxSize,
		now:     o.now,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		stopCh:  make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go c.cleanup(o.cleanupInterval)
	}

	return c
}

// Get returns the value for key and the time it was stored.
func (c *Memory[V]) Get(key string) (V, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, time.Time{}, ErrNotFound
	}

	e := el.Value.(*entry[V])
	if !c.now().Before(e.expiration) {
		c.remove(key)
		return zero, time.Time{}, ErrNotFound
	}

	c.lru.MoveToFront(el)
	return e.value, e.storedAt, nil
}

// Set stores value under key until ttl elapses, evicting the least
// recently used entry when full.
func (c *Memory[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.storedAt = now
		e.expiration = now.Add(ttl)
		c.lru.MoveToFront(el)
		return
	}

	c.items[key] = c.lru.PushFront(&entry[V]{
		key:        key,
		value:      value,
		storedAt:   now,
		expiration: now.Add(ttl),
	})

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.remove(oldest.Value.(*entry[V]).key)
		}
	}
}

// Delete removes a key from cache
func (c *Memory[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(key)
}

// Len returns the number of entries, expired ones included until swept.
func (c *Memory[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Close stops the sweeper. It is safe to call more than once.
func (c *Memory[V]) Close() error {
	c.closeOnce.Do(func() { close(c.stopCh) })
	return nil
}

// remove removes an item (caller must hold lock)
func (c *Memory[V]) remove(key string) {
	if el, ok := c.items[key]; ok {
		c.lru.Remove(el)
		delete(c.items, key)
	}
}

func (c *Memory[V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

// sweep removes all expired items
func (c *Memory[V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, el := range c.items {
		if !now.Before(el.Value.(*entry[V]).expiration) {
			c.remove(key)
		}
	}
}
