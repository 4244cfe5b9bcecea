package cache

import (
	"sync"

	"github.com/hszk-dev/recipebox/internal/domain/model"
)

// MemoryImageCache is an unbounded, process-lifetime image cache.
// Entries never expire.
type MemoryImageCache struct {
	mu     sync.RWMutex
	images map[string]*model.Image
}

// Compile-time verification that MemoryImageCache implements ImageCache.
var _ ImageCache = (*MemoryImageCache)(nil)

// NewMemoryImageCache creates an empty in-memory image cache.
func NewMemoryImageCache() *MemoryImageCache {
	return &MemoryImageCache{
		images: make(map[string]*model.Image),
	}
}

// Get returns the image stored under key.
func (c *MemoryImageCache) Get(key string) (*model.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	img, ok := c.images[key]
	return img, ok
}

// Set stores img under key. A nil image is ignored.
func (c *MemoryImageCache) Set(key string, img *model.Image) {
	if img == nil {
		return
	}

	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *MemoryImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
