package engine

import (
	"sync"

	"github.com/ncosentino/needlr/internal/models"
)

// ManifestCache memoizes pipeline results keyed by universe hash. Two runs
// over byte-identical declarations produce byte-identical manifests, so the
// hash alone is a sound cache key.
type ManifestCache struct {
	items map[string]*cacheEntry
	mutex sync.RWMutex
}

type cacheEntry struct {
	manifest    *models.Manifest
	diagnostics models.Diagnostics
}

// NewManifestCache creates an empty manifest cache
func NewManifestCache() *ManifestCache {
	return &ManifestCache{
		items: make(map[string]*cacheEntry),
	}
}

// Get retrieves a cached result for a universe hash
func (c *ManifestCache) Get(hash string) (*models.Manifest, models.Diagnostics, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if entry, exists := c.items[hash]; exists {
		return entry.manifest, entry.diagnostics, true
	}
	return nil, nil, false
}

// Set stores a result under a universe hash
func (c *ManifestCache) Set(hash string, manifest *models.Manifest, diags models.Diagnostics) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[hash] = &cacheEntry{manifest: manifest, diagnostics: diags}
}

// Clear drops all cached results
func (c *ManifestCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]*cacheEntry)
}

// Len returns the number of cached results
func (c *ManifestCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}
