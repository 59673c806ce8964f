package cari

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache stored in Redis, for sharing search results between
// processes. Entries expire through Redis key TTLs.
type RedisCache struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  Logger
}

// NewRedisCache stores entries under prefix ("cari" when empty) with the
// given TTL; a non-positive ttl means DefaultCacheTTL.
func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "cari"
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		timeout: time.Second,
	}
}

// WithLogger reports Redis failures to logger. Failures otherwise degrade to
// cache misses silently.
func (c *RedisCache) WithLogger(logger Logger) *RedisCache {
	c.logger = logger
	return c
}

func (c *RedisCache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *RedisCache) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *RedisCache) warn(op string, err error) {
	if c.logger != nil {
		c.logger.Warn("Redis cache operation failed", "op", op, "error", err)
	}
}

// Get returns the value stored under key.
func (c *RedisCache) Get(key string) ([]byte, bool) {
	ctx, cancel := c.ctx()
	defer cancel()

	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.warn("get", err)
		return nil, false
	}
	return val, true
}

// Set stores value under key with the cache TTL.
func (c *RedisCache) Set(key string, value []byte) {
	ctx, cancel := c.ctx()
	defer cancel()

	if err := c.client.Set(ctx, c.key(key), value, c.ttl).Err(); err != nil {
		c.warn("set", err)
	}
}

// Delete removes a single entry.
func (c *RedisCache) Delete(key string) {
	ctx, cancel := c.ctx()
	defer cancel()

	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.warn("del", err)
	}
}

// Clear removes every key under the cache prefix.
func (c *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*c.timeout)
	defer cancel()

	iter := c.client.Scan(ctx, 0, c.key("*"), 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				c.warn("clear", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		c.warn("clear", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			c.warn("clear", err)
		}
	}
}
