// Package database holds connection helpers for the shared stores the
// client can persist sessions in.
package database

import (
	"context"
	"fmt"
	"time"

	"nova-client/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps the Redis client used by the redis session store.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates a client and verifies the connection within the dial
// timeout.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
		MinIdleConns: 1,
	})

	c := &RedisClient{Client: rdb}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return c, nil
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}
