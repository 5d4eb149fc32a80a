package memory

import (
	"context"
	"sync"
	"time"

	"campusjobs/common/cache"

	"github.com/jellydator/ttlcache/v3"
)

// Cache is an in-process cache.Cache over ttlcache. Entries keep their
// original deadline on read. With a positive CleanupInterval expired entries
// are also evicted in the background; otherwise they are only hidden.
type Cache struct {
	items      *ttlcache.Cache[string, []byte]
	defaultTTL time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool
}

func New(opts cache.Options) *Cache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = cache.DefaultOptions().DefaultTTL
	}
	c := &Cache{
		items: ttlcache.New[string, []byte](
			ttlcache.WithTTL[string, []byte](opts.DefaultTTL),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
		defaultTTL: opts.DefaultTTL,
	}
	if opts.CleanupInterval > 0 {
		c.started = true
		go c.items.Start()
	}
	return c
}

func (c *Cache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return cache.ErrInvalidKey
	}
	data, err := cache.Encode(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cache.ErrClosed
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	c.items.Set(key, stored, ttl)
	return nil
}

func (c *Cache) Get(_ context.Context, key string, value interface{}) error {
	if key == "" {
		return cache.ErrInvalidKey
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return cache.ErrClosed
	}
	item := c.items.Get(key)
	c.mu.RUnlock()

	if item == nil || item.IsExpired() {
		return cache.ErrNotFound
	}
	return cache.Decode(item.Value(), value)
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.items.Delete(key)
	return nil
}

func (c *Cache) Clear(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return cache.ErrClosed
	}
	c.items.DeleteAll()
	return nil
}

func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.started {
		c.items.Stop()
	}
	c.items.DeleteAll()
	return nil
}
