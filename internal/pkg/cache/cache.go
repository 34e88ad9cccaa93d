// Package cache provides a two-tier JSON cache: an in-process expirable LRU in
// front of an optional Redis tier shared by every instance.
//
// The L1 TTL is kept short so an entry invalidated on another instance is
// served stale for at most that long.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Cache stores JSON encoded values by key.
type Cache interface {
	// Get decodes the cached value into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set stores val for ttl.
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	// Delete removes keys from every tier.
	Delete(ctx context.Context, keys ...string) error
}

// Config configures a Tiered cache.
type Config struct {
	// Size is the maximum number of L1 entries.
	Size int
	// L1TTL is the in-process entry lifetime.
	L1TTL time.Duration
	// Redis is the shared tier. Nil disables it.
	Redis redis.Cmdable
	// Prefix namespaces Redis keys.
	Prefix string
}

// Tiered implements Cache with an L1 LRU and an optional L2 Redis.
type Tiered struct {
	l1     *expirable.LRU[string, []byte]
	l2     redis.Cmdable
	prefix string
}

// New creates a Tiered cache.
func New(cfg Config) *Tiered {
	if cfg.Size <= 0 {
		cfg.Size = 1024
	}
	if cfg.L1TTL <= 0 {
		cfg.L1TTL = 30 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "cache:"
	}

	return &Tiered{
		l1:     expirable.NewLRU[string, []byte](cfg.Size, nil, cfg.L1TTL),
		l2:     cfg.Redis,
		prefix: cfg.Prefix,
	}
}

// Get looks up L1, then L2. An L2 hit is copied into L1.
func (c *Tiered) Get(ctx context.Context, key string, dst any) (bool, error) {
	if raw, ok := c.l1.Get(key); ok {
		return true, json.Unmarshal(raw, dst)
	}

	if c.l2 == nil {
		return false, nil
	}

	raw, err := c.l2.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	c.l1.Add(key, raw)

	return true, nil
}

// Set writes val to both tiers.
func (c *Tiered) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}

	c.l1.Add(key, raw)

	if c.l2 == nil {
		return nil
	}

	return c.l2.Set(ctx, c.prefix+key, raw, ttl).Err()
}

// Delete removes keys from both tiers.
func (c *Tiered) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	full := make([]string, 0, len(keys))
	for _, key := range keys {
		c.l1.Remove(key)
		full = append(full, c.prefix+key)
	}

	if c.l2 == nil {
		return nil
	}

	return c.l2.Del(ctx, full...).Err()
}

// GetOrLoad returns the cached value for key or calls load and caches its result.
// Cache failures are logged and never fail the call.
func GetOrLoad[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	found, err := c.Get(ctx, key, &cached)
	if err != nil {
		slog.WarnContext(ctx, "cache get failed", "key", key, "error", err)
	}
	if found && err == nil {
		return cached, nil
	}

	val, err := load(ctx)
	if err != nil {
		return val, err
	}

	if err := c.Set(ctx, key, val, ttl); err != nil {
		slog.WarnContext(ctx, "cache set failed", "key", key, "error", err)
	}

	return val, nil
}
