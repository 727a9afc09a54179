package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	likedIDsKey = "likes:%s:ids" // String: JSON array of liked song ids
	likedIDsTTL = 10 * time.Minute
)

// LikeCache caches each user's liked track ids in Redis.
type LikeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLikeCache returns a LikeCache. A non-positive ttl uses the default.
func NewLikeCache(client *redis.Client, ttl time.Duration) *LikeCache {
	if ttl <= 0 {
		ttl = likedIDsTTL
	}
	return &LikeCache{client: client, ttl: ttl}
}

// Key returns the Redis key holding a user's liked ids.
func Key(userID string) string {
	return fmt.Sprintf(likedIDsKey, userID)
}

// Get returns the cached ids; ok is false on a miss.
func (c *LikeCache) Get(ctx context.Context, userID string) ([]string, bool, error) {
	if c.client == nil {
		return nil, false, fmt.Errorf("Redis client not initialized")
	}

	val, err := c.client.Get(ctx, Key(userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get liked ids: %w", err)
	}

	ids, err := decodeIDs(val)
	if err != nil {
		// a corrupt entry counts as a miss
		return nil, false, nil
	}
	return ids, true, nil
}

// Set caches ids for the configured ttl.
func (c *LikeCache) Set(ctx context.Context, userID string, ids []string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := encodeIDs(ids)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, Key(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set liked ids: %w", err)
	}
	return nil
}

// Invalidate drops the cached ids for a user.
func (c *LikeCache) Invalidate(ctx context.Context, userID string) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := c.client.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate liked ids: %w", err)
	}
	return nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to marshal liked ids: %w", err)
	}
	return string(b), nil
}

func decodeIDs(val string) ([]string, error) {
	var ids []string
	if err := json.Unmarshal([]byte(val), &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
