package agent

import (
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	value T
	at    time.Time
}

// Cache is a two-tier response cache: an exact-key tier and a
// semantic-key tier, both size-bounded (oldest-insertion eviction) and
// TTL-bounded (expired entries are dropped lazily, on access). A lookup
// tries the exact key first, then falls back to the semantic key; a
// write populates both tiers when a semantic key is supplied.
type Cache[T any] struct {
	mu       sync.Mutex
	maxSize  int
	ttl      time.Duration
	exact    map[string]cacheEntry[T]
	semantic map[string]cacheEntry[T]
}

// NewCache builds a Cache holding at most maxSize entries per tier, each
// valid for ttl before being treated as a miss.
func NewCache[T any](maxSize int, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		maxSize:  maxSize,
		ttl:      ttl,
		exact:    make(map[string]cacheEntry[T]),
		semantic: make(map[string]cacheEntry[T]),
	}
}

// Get returns the cached value for key, or failing that semanticKey,
// along with whether the hit was against the semantic tier.
func (c *Cache[T]) Get(key, semanticKey string) (value T, hit bool, semanticHit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.exact[key]; ok {
		if time.Since(e.at) <= c.ttl {
			return e.value, true, false
		}
		delete(c.exact, key)
	}

	if semanticKey != "" {
		if e, ok := c.semantic[semanticKey]; ok {
			if time.Since(e.at) <= c.ttl {
				return e.value, true, true
			}
			delete(c.semantic, semanticKey)
		}
	}

	var zero T
	return zero, false, false
}

// Set inserts value under key, and under semanticKey too when non-empty.
func (c *Cache[T]) Set(key, semanticKey string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.insert(c.exact, key, value)
	if semanticKey != "" {
		c.insert(c.semantic, semanticKey, value)
	}
}

func (c *Cache[T]) insert(tier map[string]cacheEntry[T], key string, value T) {
	if c.maxSize > 0 && len(tier) >= c.maxSize {
		var oldestKey string
		var oldestAt time.Time
		first := true
		for k, e := range tier {
			if first || e.at.Before(oldestAt) {
				oldestKey, oldestAt, first = k, e.at, false
			}
		}
		delete(tier, oldestKey)
	}
	tier[key] = cacheEntry[T]{value: value, at: time.Now()}
}
