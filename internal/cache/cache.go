// Package cache holds short-lived serialized values keyed by string. The
// identity service uses it for profile reads; writes invalidate by key.
package cache

import (
	"context"
	"sync"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, key string) error
}

// DefaultMaxEntries bounds the in-process cache when no limit is given.
const DefaultMaxEntries = 10_000

// Cache is the in-process Store. When it is full, expired entries are swept
// first, then the entry closest to expiry is dropped.
type Cache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	m          map[string]entry
	now        func() time.Time
}

type entry struct {
	val []byte
	exp time.Time
}

type Option func(*Cache)

func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	c := &Cache{
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		m:          make(map[string]entry),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if now.After(e.exp) {
		c.mu.Lock()
		// re-check, a concurrent Set may have refreshed it
		if cur, ok := c.m[key]; ok && now.After(cur.exp) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	return e.val, true, nil
}

func (c *Cache) Set(_ context.Context, key string, val []byte) error {
	cp := make([]byte, len(val))
	copy(cp, val)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.m[key]; !exists && len(c.m) >= c.maxEntries {
		c.makeRoomLocked()
	}
	c.m[key] = entry{val: cp, exp: c.now().Add(c.ttl)}
	return nil
}

func (c *Cache) makeRoomLocked() {
	now := c.now()
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
		}
	}
	if len(c.m) < c.maxEntries {
		return
	}

	var victim string
	var soonest time.Time
	for k, e := range c.m {
		if victim == "" || e.exp.Before(soonest) {
			victim, soonest = k, e.exp
		}
	}
	delete(c.m, victim)
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}
