package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v2"

	"github.com/telewall/miniapp-backend/internal/ports/cache"
)

type cacheEntry struct {
	value     string
	expiresAt time.Time // нулевое значение - без TTL
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Cache in-memory реализация cache.Cache поверх xsync.MapOf.
// Истёкшие записи удаляются лениво при чтении и фоновой чисткой.
type Cache struct {
	entries  *xsync.MapOf[string, cacheEntry]
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache создаёт кэш; sweepInterval > 0 включает фоновую чистку
func NewCache(sweepInterval time.Duration) *Cache {
	c := &Cache{
		entries: xsync.NewMapOf[cacheEntry](),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

var _ cache.Cache = (*Cache)(nil)

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	entry, ok := c.entries.Load(key)
	if !ok {
		return "", cache.ErrCacheMiss
	}
	if entry.expired(c.now()) {
		c.entries.Delete(key)
		return "", cache.ErrCacheMiss
	}
	return entry.value, nil
}

func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries.Store(key, entry)
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.entries.Delete(key)
	return nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if err == cache.ErrCacheMiss {
		return false, nil
	}
	return err == nil, err
}

// Close идемпотентен и безопасен при конкурентных вызовах
func (c *Cache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	return nil
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.entries.Range(func(key string, entry cacheEntry) bool {
		if entry.expired(now) {
			c.entries.Delete(key)
		}
		return true
	})
}
