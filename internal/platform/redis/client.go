// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides the managed client behind the public listing cache.

Core Responsibilities:

  - Volatility: Cached listings expire on a TTL and on every catalog mutation.
  - Speed: Public pages avoid a database round-trip on hot listings.
  - Safety: Connection pooling and timeouts are configured in one place.
*/
package redis

import (
	stdctx "context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/komik/internal/platform/cache"
)

// Opinionated default timeouts for Redis operations.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 500 * time.Millisecond
	writeTimeout = 500 * time.Millisecond
	pingTimeout  = 2 * time.Second
)

// NewClient parses a Redis URL and returns a ready-to-use client.
//
// # Parameters
//   - context: Context for the initial ping.
//   - redisURL: Redis connection URL.
//   - logger: Structured logger for connection events.
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	// Short read/write timeouts: a slow cache must fall back to the database
	// quickly instead of holding the request.
	options.PoolSize = 10
	options.MinIdleConns = 2
	options.MaxIdleConns = 5

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingContext, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingContext).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}

// # Cache Backend

// Backend adapts a client to [cache.Backend].
type Backend struct {
	client *redis.Client
}

// NewBackend wraps client for the listing cache.
func NewBackend(client *redis.Client) *Backend {
	return &Backend{client: client}
}

// Get returns [cache.ErrMiss] when the key does not exist.
func (backend *Backend) Get(context stdctx.Context, key string) ([]byte, error) {
	value, err := backend.client.Get(context, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrMiss
	}
	return value, err
}

// Set stores value with a TTL.
func (backend *Backend) Set(context stdctx.Context, key string, value []byte, ttl time.Duration) error {
	return backend.client.Set(context, key, value, ttl).Err()
}

// Incr atomically increments a counter, creating it at 1.
func (backend *Backend) Incr(context stdctx.Context, key string) (int64, error) {
	return backend.client.Incr(context, key).Result()
}
