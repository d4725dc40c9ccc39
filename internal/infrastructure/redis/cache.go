package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache implements ports.Cache using a Redis client. The prefix is
// concatenated verbatim to keep cache keys byte-compatible across processes.
type RedisCache struct {
	r      redis.Cmdable
	prefix string
}

// NewRedisCache creates a new Redis-backed cache.
func NewRedisCache(r redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{r: r, prefix: prefix}
}

func (c *RedisCache) namespaced(key string) string {
	return c.prefix + key
}

// Get implements Cache.Get.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.r.Get(ctx, c.namespaced(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set implements Cache.Set.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.r.Set(ctx, c.namespaced(key), value, ttl).Err()
}

// Delete implements Cache.Delete.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.r.Del(ctx, c.namespaced(key)).Err()
}

// DeleteByPattern implements Cache.DeleteByPattern with a cursor SCAN. It is a
// best-effort sweep: partially deleted matches stay deleted when a later page
// fails.
func (c *RedisCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	var cursor uint64 = 0
	for {
		keys, next, err := c.r.Scan(ctx, cursor, c.namespaced(pattern), 200).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := c.r.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 { // done scanning all keys
			break
		}
	}
	return deleted, nil
}
