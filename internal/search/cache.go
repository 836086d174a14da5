// internal/search/cache.go
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"phone-finder-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "finder:search:"

// Cache stores result sets in redis keyed by the normalized filter.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Key returns the cache key for f. Equal filters share a key.
func Key(f models.Filter) (string, error) {
	data, err := json.Marshal(f.Normalize())
	if err != nil {
		return "", fmt.Errorf("encode filter: %w", err)
	}
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}

// Get returns the cached set for f. A miss is not an error.
func (c *Cache) Get(ctx context.Context, f models.Filter) (models.ResultSet, bool, error) {
	key, err := Key(f)
	if err != nil {
		return models.ResultSet{}, false, err
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ResultSet{}, false, nil
	}
	if err != nil {
		return models.ResultSet{}, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var rs models.ResultSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return models.ResultSet{}, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	if rs.Phones == nil {
		rs.Phones = []models.Phone{}
	}
	return rs, true, nil
}

// Set stores rs for f with the configured TTL.
func (c *Cache) Set(ctx context.Context, f models.Filter, rs models.ResultSet) error {
	key, err := Key(f)
	if err != nil {
		return err
	}

	data, err := json.Marshal(rs)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
