// Package redis holds the Redis-backed parts of the service:
//   - Cache: a namespaced JSON store shared by the pieces below
//   - GroupCache: read-through cache for group lookups
//   - RateLimiter: fixed-window request limiter shared between instances
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned by Cache reads for absent keys.
	ErrCacheMiss = errors.New("redis: cache miss")

	// ErrCacheConnection wraps the failure of the initial PING.
	ErrCacheConnection = errors.New("redis: connection failed")

	// ErrCacheNilValue rejects storing nil.
	ErrCacheNilValue = errors.New("redis: value cannot be nil")

	errEmptyIdentifier = errors.New("redis: empty identifier")
)

// DefaultKeyPrefix namespaces keys when Options.KeyPrefix is empty.
const DefaultKeyPrefix = "student-records:"

// TTLGroupCache is used when a group is cached with a zero TTL.
const TTLGroupCache = 10 * time.Minute

// Options describes how to reach Redis. Zero pool and timeout fields keep
// the go-redis defaults.
type Options struct {
	Addr     string
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// KeyPrefix is prepended to every key so several services can share a database.
	KeyPrefix string
}

// Cache stores JSON values under namespaced keys.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache connects and verifies the connection with PING.
func NewCache(ctx context.Context, opts Options) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrCacheConnection, opts.Addr, err)
	}
	return newCache(client, opts.KeyPrefix), nil
}

func newCache(client *redis.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Cache{client: client, prefix: prefix}
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks Redis answers.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) groupKey(id int64) string {
	return c.prefix + "group:" + strconv.FormatInt(id, 10)
}

func (c *Cache) rateLimitKey(identifier string, slot int64) string {
	return c.prefix + "ratelimit:" + identifier + ":" + strconv.FormatInt(slot, 10)
}

func (c *Cache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) getJSON(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return nil
}
