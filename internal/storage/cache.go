package storage

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const imageCacheTTL = 7 * 24 * time.Hour

// ImageCache 用 Redis 缓存封面图解析结果，避免每轮都重新抓取文章页
type ImageCache struct {
	Redis *redis.Client
}

func NewImageCache(addr string) *ImageCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &ImageCache{Redis: rdb}
}

func (c *ImageCache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.Redis == nil {
		return "", false
	}
	v, err := c.Redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("image cache get %s: %v", key, err)
		}
		return "", false
	}
	return v, true
}

func (c *ImageCache) Set(ctx context.Context, key, val string) {
	if c == nil || c.Redis == nil {
		return
	}
	if err := c.Redis.Set(ctx, key, val, imageCacheTTL).Err(); err != nil {
		log.Printf("image cache set %s: %v", key, err)
	}
}

func (c *ImageCache) Close() error {
	if c == nil || c.Redis == nil {
		return nil
	}
	return c.Redis.Close()
}
