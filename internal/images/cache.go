package images

import (
	"container/list"
	"image"
	"sync"
)

// Cache stores decoded images by URL.
type Cache interface {
	Get(url string) (image.Image, bool)
	Put(url string, img image.Image)
	Len() int
}

type cacheEntry struct {
	url string
	img image.Image
}

// MemoryCache is a bounded least-recently-used Cache. Safe for concurrent
// use; downloads populate it from worker goroutines.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	lru      *list.List
}

// NewMemoryCache creates a cache holding at most capacity images.
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the image for url and marks it recently used.
func (c *MemoryCache) Get(url string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).img, true
}

// Put stores img, evicting the least recently used entry when full.
func (c *MemoryCache) Put(url string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[url]; ok {
		elem.Value.(*cacheEntry).img = img
		c.lru.MoveToFront(elem)
		return
	}

	for c.lru.Len() >= c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).url)
	}
	c.entries[url] = c.lru.PushFront(&cacheEntry{url: url, img: img})
}

// Len returns the number of cached images.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
