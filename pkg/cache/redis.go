package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on top of a Redis instance, for sharing a
// module/archive cache across multiple engine runs or CI workers.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to addr (host:port) and returns a Cache backed by
// it. The connection is not verified until the first Get/Set call.
func NewRedisCache(addr string, db int) Cache {
	return &RedisCache{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache.
var _ Cache = (*RedisCache)(nil)
