package catalog

import "sync"

// categoryCache is a process-wide cache of the sub-category index.
// Lifetime: entries live until Invalidate is called (on catalog mutation),
// never expire by time. All methods are safe for concurrent use.
type categoryCache struct {
	mu      sync.RWMutex
	entries map[string][]string // category -> sub-categories
}

func newCategoryCache() *categoryCache {
	return &categoryCache{entries: make(map[string][]string)}
}

// get returns the cached sub-category list and whether it was present.
func (c *categoryCache) get(category string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	subs, ok := c.entries[category]
	return subs, ok
}

// put stores the sub-category list for a category.
func (c *categoryCache) put(category string, subs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[category] = subs
}

// Invalidate drops every cached entry. Called after any catalog mutation.
func (c *categoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]string)
}
