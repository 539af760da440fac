package redis

import (
	"context"
	"encoding/json"
	"time"
)

func ctx() context.Context {
	return context.Background()
}

// Cache wraps the shared client with versioned JSON caching. Every method
// degrades to a no-op / cache miss when redis is unavailable, so callers
// never need to branch on availability.
type Cache struct{}

func NewCache() *Cache {
	return &Cache{}
}

// GetVersion returns the current version counter for a key, 0 when unset
func (c *Cache) GetVersion(ctx context.Context, key string) int64 {
	if redisClient == nil {
		return 0
	}
	v, err := redisClient.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return v
}

// IncrementVersion bumps a version counter, invalidating every cache entry
// built with the previous version
func (c *Cache) IncrementVersion(ctx context.Context, key string) {
	if redisClient == nil {
		return
	}
	redisClient.Incr(ctx, key)
}

// Get unmarshals a cached JSON value into dest, returning whether it was found
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if redisClient == nil {
		return false, nil
	}
	raw, err := redisClient.Get(ctx, key).Bytes()
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value as JSON with a TTL
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if redisClient == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return redisClient.Set(ctx, key, raw, ttl).Err()
}
