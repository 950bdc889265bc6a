// Package cache provides a Redis-backed cache for aggregated user info.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reposnap/reposnap/internal/users"
)

const keyPrefix = "reposnap:user:"

// RedisUserCache stores users.UserInfo records as JSON with a TTL.
type RedisUserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisUserCache creates a RedisUserCache. A non-positive ttl means
// entries never expire.
func NewRedisUserCache(rdb *redis.Client, ttl time.Duration) *RedisUserCache {
	return &RedisUserCache{rdb: rdb, ttl: ttl}
}

// key includes the limit: the same login aggregated under different limits
// yields different records.
func key(login string, limit int) string {
	return keyPrefix + login + ":" + strconv.Itoa(limit)
}

// Get retrieves a cached record, returning nil on miss.
func (c *RedisUserCache) Get(ctx context.Context, login string, limit int) (*users.UserInfo, error) {
	val, err := c.rdb.Get(ctx, key(login, limit)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil //nolint:nilnil // caller checks nil value to detect a miss
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %q: %w", login, err)
	}
	var info users.UserInfo
	if err := json.Unmarshal([]byte(val), &info); err != nil {
		return nil, fmt.Errorf("cache unmarshal %q: %w", login, err)
	}
	return &info, nil
}

// Set stores a record.
func (c *RedisUserCache) Set(ctx context.Context, login string, limit int, info *users.UserInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("cache marshal %q: %w", login, err)
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key(login, limit), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", login, err)
	}
	return nil
}
