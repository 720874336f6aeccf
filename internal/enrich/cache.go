package enrich

import (
	"encoding/json"
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the in-memory layer of the page metadata cache.
const DefaultCacheSize = 512

// Cache stores fetched page metadata so repeated runs skip the network.
// An LRU fronts an optional JSON file that persists between runs.
//
// The enrichment loop is single-goroutine (it is rate limited anyway), so
// the cache does no locking of its own.
type Cache struct {
	path  string
	mem   *lru.Cache[string, PageMeta]
	disk  map[string]PageMeta
	dirty bool
}

// OpenCache loads the cache file at path. An empty path keeps the cache
// memory-only; a missing file starts empty.
func OpenCache(path string, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	mem, err := lru.New[string, PageMeta](size)
	if err != nil {
		return nil, fmt.Errorf("enrich: create cache: %w", err)
	}

	c := &Cache{
		path: path,
		mem:  mem,
		disk: make(map[string]PageMeta),
	}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("enrich: read cache %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &c.disk); err != nil {
		return nil, fmt.Errorf("enrich: parse cache %s: %w", path, err)
	}
	return c, nil
}

// Get looks up metadata by page id, promoting disk hits into memory.
func (c *Cache) Get(id string) (PageMeta, bool) {
	if m, ok := c.mem.Get(id); ok {
		return m, true
	}
	if m, ok := c.disk[id]; ok {
		c.mem.Add(id, m)
		return m, true
	}
	return PageMeta{}, false
}

// Put stores metadata for a page id.
func (c *Cache) Put(id string, m PageMeta) {
	c.mem.Add(id, m)
	c.disk[id] = m
	c.dirty = true
}

// Len reports the number of cached pages.
func (c *Cache) Len() int {
	return len(c.disk)
}

// Save writes the cache file if anything changed since it was opened.
func (c *Cache) Save() error {
	if c.path == "" || !c.dirty {
		return nil
	}
	data, err := json.MarshalIndent(c.disk, "", "  ")
	if err != nil {
		return fmt.Errorf("enrich: encode cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("enrich: write cache %s: %w", c.path, err)
	}
	c.dirty = false
	return nil
}
