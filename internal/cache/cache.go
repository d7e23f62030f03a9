// Package cache is a thin Redis wrapper for request-path lookups that can
// tolerate staleness. Every operation degrades to a miss on failure; the
// callers treat the cache as advisory, never authoritative.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

const scanBatch = 200

// Cache wraps a Redis client with namespaced keys.
type Cache struct {
	rdb *redis.Client
}

// New connects using a Redis URL (redis://host:port/db).
func New(url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewWithClient(redis.NewClient(opts)), nil
}

// NewWithClient wraps an existing client; the caller keeps ownership of
// client configuration, the cache takes over Close.
func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Key builds the canonical namespaced key.
func Key(namespace, key string) string {
	return namespace + ":" + key
}

// Get fetches a value. Absent keys and transport failures both surface as
// ErrMiss wrapped around the cause.
func (c *Cache) Get(ctx context.Context, namespace, key string) (string, error) {
	val, err := c.rdb.Get(ctx, Key(namespace, key)).Result()
	if err != nil {
		return "", errors.Join(ErrMiss, err)
	}
	return val, nil
}

// Set stores a value with a TTL. A non-positive TTL stores without expiry.
func (c *Cache) Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.Set(ctx, Key(namespace, key), value, ttl).Err()
}

// Invalidate removes entries in a namespace. A key containing '*' is treated
// as a glob and resolved with SCAN so invalidation never blocks the server
// the way KEYS would.
func (c *Cache) Invalidate(ctx context.Context, namespace, key string) error {
	full := Key(namespace, key)
	if !strings.Contains(key, "*") {
		return c.rdb.Del(ctx, full).Err()
	}

	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, full, scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Ping verifies connectivity; used by the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.rdb.Close()
}
