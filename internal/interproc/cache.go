package interproc

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"absint/internal/summary"
)

// cacheKey pairs a function name with its truncated calling context.
type cacheKey struct {
	Function string
	Context  ContextKey
}

// SummaryCache is the LRU summary cache of §4.8: default 256 entries per
// function. Eviction recomputes on demand and changes no observable
// result, only performance, so one shared LRU keyed by (function, context)
// serves every function without needing per-function partitioning.
type SummaryCache struct {
	cache *lru.Cache[cacheKey, summary.Summary]
}

// NewSummaryCache builds a cache sized perFunctionCapacity times a small
// constant, approximating "default 256 entries per function" without
// tracking per-function sub-caches.
func NewSummaryCache(perFunctionCapacity int) *SummaryCache {
	if perFunctionCapacity <= 0 {
		perFunctionCapacity = 256
	}
	c, err := lru.New[cacheKey, summary.Summary](perFunctionCapacity * 16)
	if err != nil {
		// Only returns an error for a non-positive size, which cannot
		// happen given the guard above.
		panic(err)
	}
	return &SummaryCache{cache: c}
}

// Get returns the cached summary for (fn, ctx), if present.
func (c *SummaryCache) Get(fn string, ctx ContextKey) (summary.Summary, bool) {
	return c.cache.Get(cacheKey{Function: fn, Context: ctx})
}

// Put installs sum as the summary for (fn, ctx), evicting the least
// recently used entry if the cache is full.
func (c *SummaryCache) Put(fn string, ctx ContextKey, sum summary.Summary) {
	c.cache.Add(cacheKey{Function: fn, Context: ctx}, sum)
}
