package svcfile

import (
	"os"
	"sync"

	"github.com/zoneforge/fwctl/pkg/model"
)

// cacheEntry records the file identity a parsed Service was produced from.
type cacheEntry struct {
	modTime int64
	size    int64
	service *model.Service
}

// Cache layers a (mtime, length)-keyed cache over repeated file parses: two
// loads of the same unchanged file return the same Service value without
// re-parsing; a changed mtime or length invalidates the entry.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache constructs an empty file-parse cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// LoadFile parses path (named name) through the cache. A missing file
// removes any cache entry for path and returns (nil, nil) — "not
// present" is not an error.
func (c *Cache) LoadFile(name, path string) (*model.Service, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.mu.Lock()
			delete(c.entries, path)
			c.mu.Unlock()
			return nil, nil
		}
		return nil, err
	}

	modTime := info.ModTime().UnixNano()
	size := info.Size()

	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()
	if ok && entry.modTime == modTime && entry.size == size {
		return entry.service, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	svc, err := Load(name, f)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{modTime: modTime, size: size, service: svc}
	c.mu.Unlock()

	return svc, nil
}

// Invalidate removes any cached entry for path, forcing the next LoadFile to
// re-parse.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}
