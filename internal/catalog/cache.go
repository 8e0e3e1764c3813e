package catalog

import (
	"context"
	"slices"
	"sync"
)

// ResultCache keeps the last successful result per query signature. It is a degraded-mode
// fallback: callers read it only after a live request failed.
type ResultCache interface {
	Write(ctx context.Context, signature string, result SearchResult) error
	Read(ctx context.Context, signature string) (SearchResult, bool, error)
}

// MemoryCache is a session-scoped ResultCache. Entries never expire; the cache lives as
// long as the session that constructed it.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]SearchResult
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]SearchResult)}
}

func (c *MemoryCache) Write(_ context.Context, signature string, result SearchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[signature] = cloneResult(result)
	return nil
}

func (c *MemoryCache) Read(_ context.Context, signature string) (SearchResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[signature]
	if !ok {
		return SearchResult{}, false, nil
	}
	return cloneResult(r), true, nil
}

// Len returns the number of cached signatures.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry, ending the session.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func cloneResult(r SearchResult) SearchResult {
	return SearchResult{Books: slices.Clone(r.Books), Total: r.Total}
}
