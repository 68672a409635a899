package seismic

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/stwalsh4118/rackplan/internal/logger"
	"github.com/stwalsh4118/rackplan/internal/metrics"
	"github.com/stwalsh4118/rackplan/internal/models"
	"golang.org/x/sync/singleflight"
)

// Store persists completed lookups across restarts. Get returns nil, nil for
// a missing or expired key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
}

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// Cache is an address-keyed lookup cache with one writer per key.
//
// Concurrent callers for a key share a single in-flight fetch. Only a fetch
// that succeeds while its context is live is committed, and the first commit
// for a key wins until it expires. A caller whose shared fetch was cancelled
// by another caller's context performs its own fetch.
type Cache[V any] struct {
	name  string
	ttl   time.Duration
	store Store
	log   *logger.Logger
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	group   singleflight.Group
}

// NewCache creates a cache. store may be nil.
func NewCache[V any](name string, ttl time.Duration, store Store, log *logger.Logger) *Cache[V] {
	return &Cache[V]{
		name:    name,
		ttl:     ttl,
		store:   store,
		log:     log,
		now:     time.Now,
		entries: make(map[string]cacheEntry[V]),
	}
}

// Get returns the cached value for key, fetching it on a miss.
func (c *Cache[V]) Get(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	var zero V

	if v, ok := c.cached(key); ok {
		metrics.RecordCache(c.name, "hit")
		return v, nil
	}
	if v, ok := c.fromStore(ctx, key); ok {
		metrics.RecordCache(c.name, "store")
		return v, nil
	}
	metrics.RecordCache(c.name, "miss")

	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.fetchAndCommit(ctx, key, fetch)
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if isContextErr(res.Err) && ctx.Err() == nil {
				// The caller that led the shared fetch went away.
				c.group.Forget(key)
				v, err := c.fetchAndCommit(ctx, key, fetch)
				if err != nil {
					return zero, err
				}
				return v.(V), nil
			}
			return zero, res.Err
		}
		if res.Shared {
			metrics.RecordCache(c.name, "shared")
		}
		return res.Val.(V), nil
	}
}

func (c *Cache[V]) fetchAndCommit(ctx context.Context, key string, fetch func(context.Context) (V, error)) (interface{}, error) {
	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.commit(ctx, key, v), nil
}

// commit stores v unless a live entry already exists, and returns the value
// that ends up cached.
func (c *Cache[V]) commit(ctx context.Context, key string, v V) V {
	now := c.now()
	expires := now.Add(c.ttl)

	c.mu.Lock()
	if existing, ok := c.entries[key]; ok && now.Before(existing.expires) {
		c.mu.Unlock()
		return existing.value
	}
	c.entries[key] = cacheEntry[V]{value: v, expires: expires}
	c.mu.Unlock()

	if c.store != nil {
		payload, err := json.Marshal(v)
		if err == nil {
			err = c.store.Put(ctx, key, payload, expires)
		}
		if err != nil {
			c.log.Warn("Failed to persist lookup", map[string]interface{}{
				"cache": c.name,
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return v
}

func (c *Cache[V]) cached(key string) (V, bool) {
	var zero V
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) fromStore(ctx context.Context, key string) (V, bool) {
	var zero V
	if c.store == nil {
		return zero, false
	}

	payload, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("Failed to read persisted lookup", map[string]interface{}{
			"cache": c.name,
			"key":   key,
			"error": err.Error(),
		})
		return zero, false
	}
	if payload == nil {
		return zero, false
	}

	var v V
	if err := json.Unmarshal(payload, &v); err != nil {
		return zero, false
	}

	now := c.now()
	c.mu.Lock()
	if existing, ok := c.entries[key]; !ok || !now.Before(existing.expires) {
		c.entries[key] = cacheEntry[V]{value: v, expires: now.Add(c.ttl)}
	}
	c.mu.Unlock()
	return v, true
}

// Len returns the number of entries held in memory, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// isContextErr reports a cancelled caller. Exhausted attempts that timed out
// are LookupErrors and do not count.
func isContextErr(err error) bool {
	var lookupErr *models.LookupError
	if errors.As(err, &lookupErr) {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
