package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LJTian/ClimateNewsHub/internal/collector"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "news:list:"
	pingTimeout = 3 * time.Second
)

// Cache 使用 Redis 缓存聚合结果；nil 表示未启用，所有方法退化为未命中
type Cache struct {
	Redis *redis.Client
	TTL   time.Duration
}

// NewCache 连接 Redis 并 Ping 一次，连接失败返回错误
func NewCache(addr string, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		return nil, errors.New("storage: redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("storage: redis ping: %w", err)
	}

	return &Cache{Redis: rdb, TTL: ttl}, nil
}

// AllKey 为 /news 的缓存 key
func AllKey() string {
	return keyPrefix + "all"
}

// SourceKey 为 /news/:sourceId 的缓存 key
func SourceKey(source string) string {
	return keyPrefix + "source:" + source
}

// GetArticles 读取缓存；未启用、未命中或反序列化失败时 ok=false，仅 Redis 故障时返回 error
func (c *Cache) GetArticles(ctx context.Context, key string) ([]collector.Article, bool, error) {
	if c == nil || c.Redis == nil {
		return nil, false, nil
	}

	bs, err := c.Redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: get %s: %w", key, err)
	}

	var cached []collector.Article
	if err := json.Unmarshal(bs, &cached); err != nil {
		return nil, false, nil
	}
	return cached, true, nil
}

// SetArticles 写入缓存，空列表同样写入
func (c *Cache) SetArticles(ctx context.Context, key string, items []collector.Article) error {
	if c == nil || c.Redis == nil {
		return nil
	}
	if items == nil {
		items = []collector.Article{}
	}

	bs, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("storage: marshal %s: %w", key, err)
	}
	if err := c.Redis.Set(ctx, key, bs, c.TTL).Err(); err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}

// Close 释放 Redis 连接
func (c *Cache) Close() error {
	if c == nil || c.Redis == nil {
		return nil
	}
	return c.Redis.Close()
}
