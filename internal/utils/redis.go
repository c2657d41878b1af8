package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient 连接 Redis 并 ping 一次，失败时返回错误由调用方决定是否降级
func NewRedisClient(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	log.Printf("[Redis] 已连接 %s", addr)
	return client, nil
}

// RedisCountCache 多实例共享的计数缓存
type RedisCountCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCountCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCountCache {
	return &RedisCountCache{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisCountCache) GetCount(ctx context.Context, key string) (int64, bool) {
	n, err := r.client.Get(ctx, r.prefix+key).Int64()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Redis] 读取缓存 %s 失败: %v", key, err)
		}
		return 0, false
	}
	return n, true
}

func (r *RedisCountCache) SetCount(ctx context.Context, key string, n int64) {
	if err := r.client.Set(ctx, r.prefix+key, n, r.ttl).Err(); err != nil {
		log.Printf("[Redis] 写入缓存 %s 失败: %v", key, err)
	}
}

func (r *RedisCountCache) Invalidate(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		log.Printf("[Redis] 删除缓存 %s 失败: %v", key, err)
	}
}
