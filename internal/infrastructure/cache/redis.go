package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/decorlens/backend/internal/domain"
)

// RedisCache stores JSON-encoded values in Redis
type RedisCache struct {
	client rueidis.Client
}

// NewRedisCache connects to the Redis server at redisURL
// (redis://[user:password@]host:port/db).
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opt, err := rueidis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DisableCache = true

	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	c := &RedisCache{client: client}
	if err := c.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return c, nil
}

func newRedisCacheWithClient(client rueidis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Ping checks connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	cmd := c.client.B().Ping().Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: ping: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Close shuts down the client
func (c *RedisCache) Close() {
	c.client.Close()
}

// Get returns the decoded value for key or domain.ErrCacheMiss
func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, error) {
	cmd := c.client.B().Get().Key(key).Build()
	data, err := c.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrCacheUnavailable, key, err)
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decode cached value %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key. A non-positive ttl stores without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}

	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = c.client.B().Set().Key(key).Value(string(data)).Ex(ttl).Build()
	} else {
		cmd = c.client.B().Set().Key(key).Value(string(data)).Build()
	}
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: set %s: %v", domain.ErrCacheUnavailable, key, err)
	}
	return nil
}

// Delete removes key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	cmd := c.client.B().Del().Key(key).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: del %s: %v", domain.ErrCacheUnavailable, key, err)
	}
	return nil
}

// Exists reports whether key is present
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	cmd := c.client.B().Exists().Key(key).Build()
	n, err := c.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", domain.ErrCacheUnavailable, key, err)
	}
	return n > 0, nil
}
