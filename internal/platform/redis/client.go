// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides the managed client behind the server-side session store.

Every site request of the redis backend loads its session once and writes it
back at most once, so the pool only needs a connection per in-flight request.
Session keys carry their own TTL; no sweeper is needed.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
)

const (
	// sessionHeadroom covers session reads of requests that never hash.
	sessionHeadroom = 8

	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// Options tunes the client built by [NewClient].
type Options struct {
	PoolSize     int
	MinIdleConns int

	// PoolTimeout bounds the wait for a free connection; a session load that
	// cannot get one fails the request with 503.
	PoolTimeout time.Duration
}

// Sizing returns the client options for a process that runs at most
// hashConcurrency bcrypt operations at once.
func Sizing(hashConcurrency int) Options {
	poolSize := max(hashConcurrency, 1) + sessionHeadroom
	return Options{
		PoolSize:     poolSize,
		MinIdleConns: min(2, poolSize),
		PoolTimeout:  readTimeout,
	}
}

// NewClient parses a Redis URL and returns a ready-to-use client.
//
// A client_name in the URL is kept; pool limits always come from options.
//
// # Parameters
//   - context: Context for the initial ping.
//   - redisURL: Redis connection URL.
//   - options: Pool limits, usually from [Sizing].
//   - logger: Structured logger for connection events.
func NewClient(context stdctx.Context, redisURL string, options Options, logger *slog.Logger) (*redis.Client, error) {
	clientOptions, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	clientOptions.PoolSize = options.PoolSize
	clientOptions.MinIdleConns = options.MinIdleConns
	clientOptions.MaxIdleConns = options.PoolSize
	clientOptions.PoolTimeout = options.PoolTimeout

	clientOptions.DialTimeout = dialTimeout
	clientOptions.ReadTimeout = readTimeout
	clientOptions.WriteTimeout = writeTimeout

	// Session calls stop at the request deadline instead of only the socket timeouts
	clientOptions.ContextTimeoutEnabled = true

	if clientOptions.ClientName == "" {
		clientOptions.ClientName = constants.AppName
	}

	client := redis.NewClient(clientOptions)

	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", clientOptions.Addr),
		slog.Int("db", clientOptions.DB),
		slog.Int("pool_size", clientOptions.PoolSize),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
