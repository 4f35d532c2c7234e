package cache

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

const keyPrefix = "cache:v1:"

// Key derives the cache key for a query. Queries differing only in
// case or surrounding whitespace share one entry.
func Key(query string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(query))
}

// AnswerCache stores finished answers keyed by normalized query. It is
// strictly an accelerator: every failure of the underlying store is
// logged and swallowed so the caller can always fall through to the
// full reasoning path.
type AnswerCache struct {
	store    Store
	ttl      time.Duration
	maxBytes int64
}

// NewAnswerCache wraps store with answer-cache semantics. maxMemoryMB
// bounds the store's reported usage; when exceeded the whole cache is
// flushed before the next write. A maxMemoryMB of 0 disables the bound.
func NewAnswerCache(store Store, ttl time.Duration, maxMemoryMB int) *AnswerCache {
	return &AnswerCache{
		store:    store,
		ttl:      ttl,
		maxBytes: int64(maxMemoryMB) * 1024 * 1024,
	}
}

// Lookup returns the cached answer for query, or "", false.
func (c *AnswerCache) Lookup(ctx context.Context, query string) (string, bool) {
	val, err := c.store.Get(ctx, Key(query))
	if errors.Is(err, ErrMiss) {
		return "", false
	}
	if err != nil {
		log.Printf("answer cache: lookup failed: %v", err)
		return "", false
	}
	return val, true
}

// Save stores an answer under the query's normalized key. If the store
// has grown past the memory bound, everything is flushed first; the
// eviction is deliberately coarse since entries expire on their own
// within one TTL anyway.
func (c *AnswerCache) Save(ctx context.Context, query, answer string) {
	if c.maxBytes > 0 {
		used, err := c.store.MemoryUsage(ctx)
		if err != nil {
			log.Printf("answer cache: memory check failed: %v", err)
		} else if used > c.maxBytes {
			log.Printf("answer cache: usage %d bytes over limit %d, flushing", used, c.maxBytes)
			if err := c.store.FlushAll(ctx); err != nil {
				log.Printf("answer cache: flush failed: %v", err)
				return
			}
		}
	}

	if err := c.store.Set(ctx, Key(query), answer, c.ttl); err != nil {
		log.Printf("answer cache: save failed: %v", err)
	}
}
