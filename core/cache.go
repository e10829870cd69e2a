package core

import "sync"

// Cache is a best-effort response cache. It is a latency optimization only:
// correctness never depends on it and NopCache is a valid implementation.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Delete(key string)
	Clear()
}

// NopCache caches nothing.
type NopCache struct{}

var _ Cache = (*NopCache)(nil)

func (NopCache) Get(string) (interface{}, bool) { return nil, false }
func (NopCache) Set(string, interface{})        {}
func (NopCache) Delete(string)                  {}
func (NopCache) Clear()                         {}

type boundedCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]interface{}
	order    []string // insertion order; the oldest entry is evicted on overflow
}

var _ Cache = (*boundedCache)(nil)

// NewBoundedCache returns an in-process cache holding at most capacity
// entries, evicting the oldest inserted entry on overflow.
func NewBoundedCache(capacity int) Cache {
	if capacity <= 0 {
		return &NopCache{}
	}
	return &boundedCache{
		capacity: capacity,
		entries:  make(map[string]interface{}, capacity),
	}
}

func (c *boundedCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *boundedCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		if len(c.entries) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = value
}

func (c *boundedCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *boundedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]interface{}, c.capacity)
	c.order = nil
}
