package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nvdoan/wavelink-backend/internal/database"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL applies when callers do not pick one
	DefaultCacheTTL = 15 * time.Minute
	// MaxCacheTTL caps custom TTLs; profile and search results go stale
	// quickly in a social feed
	MaxCacheTTL = time.Hour
)

// CacheService is a JSON cache over Redis for hot read paths: user
// profiles, search results, follower counts.
type CacheService struct{}

// Get retrieves a value from cache. A miss is not an error.
func (c *CacheService) Get(key string, dest interface{}) (bool, error) {
	ctx := context.Background()

	val, err := database.RedisClient.Get(ctx, CacheKeyPrefix+key).Result()
	if err != nil {
		return false, nil
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value with the default TTL.
func (c *CacheService) Set(key string, value interface{}) error {
	return c.SetWithTTL(key, value, DefaultCacheTTL)
}

// SetWithTTL stores a value with a custom TTL, capped at MaxCacheTTL.
func (c *CacheService) SetWithTTL(key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if ttl > MaxCacheTTL {
		ttl = MaxCacheTTL
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return database.RedisClient.Set(ctx, CacheKeyPrefix+key, jsonData, ttl).Err()
}

// Delete removes a value from cache; called when the underlying record
// changes.
func (c *CacheService) Delete(key string) error {
	ctx := context.Background()
	return database.RedisClient.Del(ctx, CacheKeyPrefix+key).Err()
}

// CacheKey builds the key for a specific resource.
func CacheKey(resource string, identifier string) string {
	return fmt.Sprintf("%s:%s", resource, identifier)
}

// Global cache service instance
var Cache = &CacheService{}
