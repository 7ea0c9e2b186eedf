// Package cache stores raw NSE responses so repeated tool calls within a
// short window do not hit the upstream site again.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bobmcallan/nsechat/internal/common"
	"github.com/bobmcallan/nsechat/internal/interfaces"
)

const keyPrefix = "nsechat:"

// New returns a Redis-backed cache when caching is enabled, otherwise a no-op cache.
func New(ctx context.Context, logger *common.Logger, config common.CacheConfig) (interfaces.ResponseCache, error) {
	if !config.Enabled || config.RedisURL == "" {
		return NoopCache{}, nil
	}
	return NewRedisCache(ctx, logger, config.RedisURL)
}

// RedisCache implements interfaces.ResponseCache using Redis.
type RedisCache struct {
	client *redis.Client
	logger *common.Logger
}

var _ interfaces.ResponseCache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, logger *common.Logger, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Response cache connected")
	return &RedisCache{client: client, logger: logger}, nil
}

// Get returns the cached value. Any Redis failure is treated as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return nil, false
	}
	return val, true
}

// Set stores value for ttl. Failures are logged and otherwise ignored.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoopCache never stores anything.
type NoopCache struct{}

var _ interfaces.ResponseCache = NoopCache{}

func (NoopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (NoopCache) Set(context.Context, string, []byte, time.Duration) {}

func (NoopCache) Close() error { return nil }
