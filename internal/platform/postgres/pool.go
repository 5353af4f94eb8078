// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres provides the managed PostgreSQL connection pool behind the
// account repository.
//
// # Architecture
//
// This package is part of the Infrastructure layer. It owns the physical
// connections (pgxpool); repositories only see the narrow DBTX interface.
//
// # Sizing
//
// Every credential post holds a bcrypt slot and touches the users table once,
// either before (login) or after (registration) the hash. Every other site
// request performs one identity lookup. The pool is therefore sized from the
// hashing concurrency plus a fixed headroom for identity lookups, so a burst
// of logins cannot starve page loads of connections.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
)

const (
	// identityHeadroom is reserved for per-request identity lookups.
	identityHeadroom = 4
	// warmConns is the number of connections kept open while idle.
	warmConns = 2

	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

// Options tunes the pool built by [NewPool].
type Options struct {
	// MaxConns caps open connections.
	MaxConns int32

	// MinConns connections are kept open while idle.
	MinConns int32

	// StatementTimeout is applied to every new session; zero leaves the
	// server default.
	StatementTimeout time.Duration
}

// Sizing returns the pool options for a process that runs at most
// hashConcurrency bcrypt operations at once.
func Sizing(hashConcurrency int) Options {
	maxConns := int32(max(hashConcurrency, 1) + identityHeadroom)
	return Options{
		MaxConns:         maxConns,
		MinConns:         min(warmConns, maxConns),
		StatementTimeout: constants.GlobalRequestTimeout,
	}
}

// NewPool creates and validates a new PostgreSQL connection pool.
//
// # Parameters
//   - ctx: Context for the initial connection attempt.
//   - dsn: A libpq-compatible connection string or postgres:// URL.
//   - options: Pool limits, usually from [Sizing].
//   - logger: Structured logger for pool-level events.
func NewPool(ctx context.Context, dsn string, options Options, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	poolConfig.MaxConns = options.MaxConns
	poolConfig.MinConns = options.MinConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	// Tag sessions so pg_stat_activity shows which service holds them
	poolConfig.ConnConfig.RuntimeParams["application_name"] = constants.AppName

	if options.StatementTimeout > 0 {
		timeoutQuery := fmt.Sprintf("SET statement_timeout = %d", options.StatementTimeout.Milliseconds())
		poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
			_, err := connection.Exec(ctx, timeoutQuery)
			return err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_connected",
		slog.Int("max_conns", int(options.MaxConns)),
		slog.Int("min_conns", int(options.MinConns)),
		slog.Duration("statement_timeout", options.StatementTimeout),
	)

	return pool, nil
}

// Ping verifies that the PostgreSQL connection pool is healthy.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}

	return nil
}
