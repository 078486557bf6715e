// Package rediscache implements the response cache and the invalidation
// index on Redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"naturatlas/internal/observability"
)

type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.DialTimeout = d }
}

type Client struct {
	rdb *redis.Client
}

func New(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     64,
		MinIdleConns: 4,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	}
	for _, f := range opts {
		f(ro)
	}

	rdb := redis.NewClient(ro)

	err := rdb.Ping(ctx).Err()
	observability.ObserveCacheOp("ping", err)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCacheOp("get", nil)
		observability.IncCacheMiss()
		return nil, false, nil
	}
	observability.ObserveCacheOp("get", err)
	if err != nil {
		return nil, false, fmt.Errorf("redis GET %q: %w", key, err)
	}
	observability.IncCacheHit()
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	err := c.rdb.Set(ctx, key, val, ttl).Err()
	observability.ObserveCacheOp("set", err)
	if err != nil {
		return fmt.Errorf("redis SET %q: %w", key, err)
	}
	return nil
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := c.rdb.Del(ctx, keys...).Err()
	observability.ObserveCacheOp("del", err)
	if err != nil {
		return fmt.Errorf("redis DEL %d keys: %w", len(keys), err)
	}
	return nil
}

// SAdd records members in the named index set. The set carries the same
// TTL as the entries it points at, refreshed on every write.
func (c *Client) SAdd(ctx context.Context, set string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	vals := make([]any, 0, len(members))
	for _, m := range members {
		vals = append(vals, m)
	}
	err := c.rdb.SAdd(ctx, set, vals...).Err()
	observability.ObserveCacheOp("sadd", err)
	if err != nil {
		return fmt.Errorf("redis SADD %q: %w", set, err)
	}
	if ttl > 0 {
		if err := c.rdb.Expire(ctx, set, ttl).Err(); err != nil {
			return fmt.Errorf("redis EXPIRE %q: %w", set, err)
		}
	}
	return nil
}

// SMembers returns the members of the named index set.
func (c *Client) SMembers(ctx context.Context, set string) ([]string, error) {
	members, err := c.rdb.SMembers(ctx, set).Result()
	observability.ObserveCacheOp("smembers", err)
	if err != nil {
		return nil, fmt.Errorf("redis SMEMBERS %q: %w", set, err)
	}
	return members, nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
