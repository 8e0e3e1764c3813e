package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "bookworld:catalog:"

// redisKV is the part of *redis.Client the cache uses.
type redisKV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisCache is a ResultCache shared by every request the server handles. A zero TTL
// keeps entries until the Redis instance evicts them.
type RedisCache struct {
	client redisKV
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: redisKeyPrefix, ttl: ttl}
}

func (c *RedisCache) key(signature string) string {
	return c.prefix + signature
}

func (c *RedisCache) Write(ctx context.Context, signature string, result SearchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode cached result: %w", err)
	}
	if err := c.client.Set(ctx, c.key(signature), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache write: %w", err)
	}
	return nil
}

func (c *RedisCache) Read(ctx context.Context, signature string) (SearchResult, bool, error) {
	payload, err := c.client.Get(ctx, c.key(signature)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SearchResult{}, false, nil
		}
		return SearchResult{}, false, fmt.Errorf("redis cache read: %w", err)
	}
	var result SearchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return SearchResult{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return result, true, nil
}

// NewRedisClient parses a Redis URL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}
