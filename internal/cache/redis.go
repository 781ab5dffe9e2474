package cache

import (
	"context"
	stderrors "errors"
	"time"

	"grocerybi/pkg/errors"

	"github.com/golang/snappy"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "grocerybi:report:"

// redisClient is the subset of *redis.Client the cache uses
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisConfig holds the redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache stores snappy-compressed values in redis
type RedisCache struct {
	client redisClient
}

// NewRedisCache connects and pings the server
func NewRedisCache(ctx context.Context, config RedisConfig) (*RedisCache, error) {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	c := &RedisCache{client: client}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheUnavailable, "Failed to reach redis").
			WithContext("addr", config.Addr).
			WithSuggestions(
				"Check cache.addr and that redis is running",
				"Set cache.backend to memory or none to run without redis",
			)
	}
	return c, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheUnavailable, "Failed to read from redis")
	}

	value, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheCorrupted, "Cached value is not valid snappy data").
			WithContext("key", key)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+key, snappy.Encode(nil, value), ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheUnavailable, "Failed to write to redis")
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
