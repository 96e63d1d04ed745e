// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cache keeps public listings out of the database for a short while.

# Invalidation

Every key embeds the current catalog version (a counter in the backend). Any
admin mutation bumps the counter, so all listings cached under the previous
version stop being read at once and simply expire on their TTL.

A cache failure never fails a request: reads fall through to the loader and
failed writes are only logged.
*/
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/komik/internal/platform/constants"
	"github.com/taibuivan/komik/internal/platform/ctxutil"
)

// ErrMiss is returned by a [Backend] when a key is absent.
var ErrMiss = errors.New("cache: miss")

// Backend is the key-value store behind the cache.
type Backend interface {
	Get(context context.Context, key string) ([]byte, error)
	Set(context context.Context, key string, value []byte, ttl time.Duration) error
	Incr(context context.Context, key string) (int64, error)
}

// Cache is a versioned read-through cache. A nil *Cache disables caching.
type Cache struct {
	backend Backend
	ttl     time.Duration
	logger  *slog.Logger
}

// New returns a cache storing entries for ttl.
func New(backend Backend, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{backend: backend, ttl: ttl, logger: logger}
}

// version reads the current namespace version. A missing counter is version 0.
func (cache *Cache) version(context context.Context) (string, error) {
	raw, err := cache.backend.Get(context, constants.RedisKeyCatalogVersion)
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

/*
Remember returns the cached value for parts, or calls load and caches its result.

Parameters:
  - cache: may be nil, in which case load is always called
  - parts: key segments, e.g. ("series", "list", "page=1")
  - load: the database read

Returns:
  - T: cached or freshly loaded value
  - error: only errors from load
*/
func Remember[T any](ctx context.Context, cache *Cache, parts []string, load func(context.Context) (T, error)) (T, error) {
	if cache == nil {
		return load(ctx)
	}

	logger := ctxutil.LoggerOr(ctx, cache.logger)

	// 1. Resolve the namespace
	version, err := cache.version(ctx)
	if err != nil {
		logger.WarnContext(ctx, "cache_unavailable", slog.Any("error", err))
		return load(ctx)
	}
	key := constants.RedisPrefixCatalog + version + ":" + strings.Join(parts, ":")

	// 2. Serve a hit
	if raw, err := cache.backend.Get(ctx, key); err == nil {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		logger.WarnContext(ctx, "cache_entry_corrupt", slog.String("key", key))
	} else if !errors.Is(err, ErrMiss) {
		logger.WarnContext(ctx, "cache_read_failed", slog.String("key", key), slog.Any("error", err))
	}

	// 3. Load and fill
	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if raw, err := json.Marshal(value); err == nil {
		if err := cache.backend.Set(ctx, key, raw, cache.ttl); err != nil {
			logger.WarnContext(ctx, "cache_write_failed", slog.String("key", key), slog.Any("error", err))
		}
	}

	return value, nil
}

// Invalidate moves every reader to a fresh namespace.
func (cache *Cache) Invalidate(ctx context.Context) {
	if cache == nil {
		return
	}

	version, err := cache.backend.Incr(ctx, constants.RedisKeyCatalogVersion)
	if err != nil {
		ctxutil.LoggerOr(ctx, cache.logger).WarnContext(ctx, "cache_invalidate_failed", slog.Any("error", err))
		return
	}

	ctxutil.LoggerOr(ctx, cache.logger).DebugContext(ctx, "cache_invalidated", slog.String("version", strconv.FormatInt(version, 10)))
}
