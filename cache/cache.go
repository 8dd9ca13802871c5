/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package cache stores computed per-user payloads in Redis. A nil *Client
// is a valid cache that never hits.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/humaidq/labwise/logging"
)

const (
	keyPrefix  = "labwise"
	defaultTTL = 10 * time.Minute
	scanCount  = 100
)

var logger = logging.Logger(logging.SourceCache)

// Config holds the Redis connection settings.
type Config struct {
	URL string // redis://[:password@]host:port/db
	TTL time.Duration
}

// Client is a JSON cache on top of Redis.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis. It returns a nil Client when no URL is configured.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, nil //nolint:nilnil // Caching is optional; a nil client never hits.
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	c := NewFromRedis(redis.NewClient(opts), cfg.TTL)

	if err := c.Ping(ctx); err != nil {
		if closeErr := c.rdb.Close(); closeErr != nil {
			logger.Warn("Failed to close redis client", "error", closeErr)
		}

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to redis", "addr", opts.Addr, "db", opts.DB)

	return c, nil
}

// NewFromRedis wraps an existing Redis client.
func NewFromRedis(rdb *redis.Client, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Client{rdb: rdb, ttl: ttl}
}

// UserKey builds a cache key scoped to one user.
func UserKey(userID string, parts ...string) string {
	return strings.Join(append([]string{keyPrefix, userID}, parts...), ":")
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}

	return c.rdb.Ping(ctx).Err()
}

// GetJSON decodes the value stored under key into dest. It reports whether
// the key was present.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("failed to get from cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cached value: %w", err)
	}

	return true, nil
}

// SetJSON stores value under key for the client's TTL.
func (c *Client) SetJSON(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}

	return nil
}

// Delete removes keys.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}

	return nil
}

// InvalidateUser removes every key cached for a user.
func (c *Client) InvalidateUser(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}

	var (
		cursor uint64
		keys   []string
	)

	pattern := UserKey(userID, "*")

	// Collect first; deleting mid-scan can skip keys on some servers.
	for {
		batch, next, err := c.rdb.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}

		keys = append(keys, batch...)
		cursor = next

		if cursor == 0 {
			break
		}
	}

	for start := 0; start < len(keys); start += scanCount {
		end := min(start+scanCount, len(keys))
		if err := c.Delete(ctx, keys[start:end]...); err != nil {
			return err
		}
	}

	removed := len(keys)

	if removed > 0 {
		logger.Debug("Invalidated cached payloads", "user_id", userID, "keys", removed)
	}

	return nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	return c.rdb.Close()
}
