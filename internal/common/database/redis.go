// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"phone-finder-workers/internal/common/config"
	"phone-finder-workers/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// RedisClient holds the connection behind the search result cache.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds a small pool sized for cache lookups. It does not dial;
// call Ping to verify the server.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis: address is required when the result cache is enabled")
	}

	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     8,
		MinIdleConns: 2,
	})}, nil
}

// Ping reports an unreachable cache as a retryable connection failure.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return errors.NewDatabaseConnectionFailedError(fmt.Errorf("redis %s: %w", c.Client.Options().Addr, err))
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
