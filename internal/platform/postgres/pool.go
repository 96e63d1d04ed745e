// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres provides the managed PostgreSQL connection pools for the
// Komik application.
//
// # Architecture
//
// Two credential tiers are opened: a write-capable pool used for every
// mutation and consistency-sensitive read, and a read pool used by public
// listings. When no separate read DSN is configured both tiers share one pool.
package postgres

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/komik/internal/platform/constants"
)

// Opinionated pool settings for the Komik workload.
const (
	// maxConns is the maximum number of connections in the pool.
	maxConns = 25
	// minConns keeps a warm set of connections to avoid cold-start latency.
	minConns = 5
	// maxConnLifetime ensures connections are periodically recycled.
	maxConnLifetime = 60 * time.Minute
	// maxConnIdleTime closes connections that have been idle too long.
	maxConnIdleTime = 10 * time.Minute
	// healthCheckPeriod is the frequency of background connection health checks.
	healthCheckPeriod = 1 * time.Minute
	// connectTimeout is the maximum time allowed to establish a new connection.
	connectTimeout = 5 * time.Second
	// pingTimeout is the maximum duration for a health check ping.
	pingTimeout = 2 * time.Second
)

// Pools holds both credential tiers.
type Pools struct {
	// Write carries elevated credentials.
	Write *pgxpool.Pool
	// Read serves public listings and may lag behind Write.
	Read *pgxpool.Pool
}

// Open connects both tiers. readDSN may equal writeDSN, in which case a single
// pool backs both fields.
func Open(context stdctx.Context, writeDSN, readDSN string, logger *slog.Logger) (*Pools, error) {
	write, err := NewPool(context, writeDSN, "write", logger)
	if err != nil {
		return nil, err
	}

	if readDSN == "" || readDSN == writeDSN {
		return &Pools{Write: write, Read: write}, nil
	}

	read, err := NewPool(context, readDSN, "read", logger)
	if err != nil {
		write.Close()
		return nil, err
	}

	return &Pools{Write: write, Read: read}, nil
}

// Close releases both tiers once.
func (pools *Pools) Close() {
	if pools.Read != nil && pools.Read != pools.Write {
		pools.Read.Close()
	}
	if pools.Write != nil {
		pools.Write.Close()
	}
}

// NewPool creates and validates a new PostgreSQL connection pool.
//
// # Parameters
//   - context: Context for the initial connection attempt.
//   - dsn: A libpq-compatible connection string or postgres:// URL.
//   - tier: Label used in logs ("write" or "read").
//   - logger: Structured logger for pool-level events.
func NewPool(context stdctx.Context, dsn, tier string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid %s DSN: %w", tier, err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	// Set a per-connection statement timeout to avoid runaway queries.
	poolConfig.AfterConnect = func(context stdctx.Context, connection *pgx.Conn) error {
		timeoutQuery := fmt.Sprintf("SET statement_timeout = '%ds'", int(constants.GlobalRequestTimeout.Seconds()))
		_, err := connection.Exec(context, timeoutQuery)
		return err
	}

	connectContext, cancel := stdctx.WithTimeout(context, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectContext, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create %s pool: %w", tier, err)
	}

	if err := Ping(context, pool); err != nil {
		pool.Close()
		return nil, err
	}

	stats := pool.Stat()
	logger.Info("postgres_pool_connected",
		slog.String("tier", tier),
		slog.Int("max_conns", int(stats.MaxConns())),
		slog.Int("total_conns", int(stats.TotalConns())),
	)

	return pool, nil
}

// Ping verifies that the PostgreSQL connection pool is healthy.
func Ping(context stdctx.Context, pool *pgxpool.Pool) error {
	pingContext, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingContext); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}

	return nil
}
