// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, session store) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// # Session Backends

const (
	// SessionBackendCookie keeps the session in a signed cookie.
	SessionBackendCookie = "cookie"
	// SessionBackendRedis keeps the session in Redis, keyed by a cookie id.
	SessionBackendRedis = "redis"
)

// minSessionSecretBytes matches the HS256 key floor of the session package.
const minSessionSecretBytes = 32

// # Configuration Schema

// Config holds all runtime configuration for the Yomira Accounts web server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL). Empty runs on the in-memory store.
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath overrides the embedded SQL migrations with a directory on disk.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Key-Value store (Redis). Required by the redis session backend.
	RedisURL string `env:"REDIS_URL"`

	// Session settings
	SessionBackend      string        `env:"SESSION_BACKEND"       envDefault:"cookie"`
	SessionSecret       string        `env:"SESSION_SECRET"`
	SessionTTL          time.Duration `env:"SESSION_TTL"           envDefault:"2h"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// Credential hashing
	BcryptCost      int `env:"BCRYPT_COST"      envDefault:"10"`
	HashConcurrency int `env:"HASH_CONCURRENCY" envDefault:"0"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the rules env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	switch c.SessionBackend {
	case SessionBackendCookie:
		// Only the cookie backend signs with the secret
		if len(c.SessionSecret) < minSessionSecretBytes {
			errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes when SESSION_BACKEND=cookie", minSessionSecretBytes))
		}
	case SessionBackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when SESSION_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", SessionBackendCookie, SessionBackendRedis, c.SessionBackend))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.HashConcurrency < 0 {
		errs = append(errs, errors.New("HASH_CONCURRENCY must not be negative"))
	}

	if c.IsProduction() && !c.SessionCookieSecure {
		errs = append(errs, errors.New("SESSION_COOKIE_SECURE must be true in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesDatabase reports whether accounts are stored in PostgreSQL.
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}
