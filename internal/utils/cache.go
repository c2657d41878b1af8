package utils

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// CountCache 短期计数缓存（观看数、点赞数），可由进程内缓存或 Redis 实现
type CountCache interface {
	GetCount(ctx context.Context, key string) (int64, bool)
	SetCount(ctx context.Context, key string, n int64)
	Invalidate(ctx context.Context, key string)
}

// MemoryCountCache 基于 go-cache 的进程内计数缓存
type MemoryCountCache struct {
	c   *cache.Cache
	ttl time.Duration
}

// NewMemoryCountCache 清理间隔取 ttl 的两倍
func NewMemoryCountCache(ttl time.Duration) *MemoryCountCache {
	return &MemoryCountCache{c: cache.New(ttl, 2*ttl), ttl: ttl}
}

func (m *MemoryCountCache) GetCount(_ context.Context, key string) (int64, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

func (m *MemoryCountCache) SetCount(_ context.Context, key string, n int64) {
	m.c.Set(key, n, m.ttl)
}

func (m *MemoryCountCache) Invalidate(_ context.Context, key string) {
	m.c.Delete(key)
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// TTLCache 带过期时间的 LRU 缓存，只用于不可变数据
type TTLCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewTTLCache size 是最大缓存条数，ttl 是数据有效期
func NewTTLCache[T any](size int, ttl time.Duration) *TTLCache[T] {
	// size > 0 时 lru.New 不会返回错误
	c, _ := lru.New[string, CacheItem[T]](size)
	return &TTLCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set LRU 中 Add 会自动处理更新
func (c *TTLCache[T]) Set(key string, value T) {
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	})
}

// Get 带过期检查
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.Value, true
}

func (c *TTLCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

func (c *TTLCache[T]) Len() int {
	return c.storage.Len()
}
