package imagecache

import (
	"container/list"
	"image"
	"sync"
)

// Handle wraps one decoded image shared by every caller that looked up the
// same URI. Handles leave the cache only through LRU eviction; callers
// already holding one keep using it unaffected.
type Handle struct {
	URI         string
	Image       image.Image
	Placeholder bool
}

// Cache is a fixed-capacity LRU of decoded image handles keyed by URI.
// Insertion is idempotent: inserting a URI that is already cached returns
// the cached handle, so repeat lookups always see the same instance.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

// NewCache builds a cache holding at most capacity decoded images.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the cached handle for uri, marking it most recently used.
func (c *Cache) Get(uri string) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[uri]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*Handle), true
}

// Insert stores h under its URI unless one is already cached, and returns
// the canonical handle either way. The least recently used entry is evicted
// once the cache is over capacity.
func (c *Cache) Insert(h *Handle) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[h.URI]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*Handle)
	}
	el := c.order.PushFront(h)
	c.items[h.URI] = el
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*Handle).URI)
	}
	return h
}

// Len reports the number of cached handles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
