// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Session: Cookie naming, the identity key and the store key prefix.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "yomira-accounts"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// ReadinessTimeout bounds each dependency probe of the /ready endpoint.
	ReadinessTimeout = 2 * time.Second
)

// # Rate Limiting

const (
	// CredentialRateLimitRPS is the sustained rate of credential submissions
	// (POST /login, POST /register) allowed per IP.
	CredentialRateLimitRPS = 1.0

	// CredentialRateLimitBurst is the burst allowed before throttling kicks in.
	CredentialRateLimitBurst = 10

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Session

const (
	// SessionCookieName is the cookie carrying the session (or its id).
	SessionCookieName = "yomira_session"

	// SessionCookiePath scopes the cookie to the whole site.
	SessionCookiePath = "/"

	// SessionKeyUserID is the only session key the identity resolver reads.
	SessionKeyUserID = "user_id"

	// SessionIssuer is the 'iss' claim of signed session cookies.
	SessionIssuer = "accounts.yomira.app"

	// DefaultSessionTTL is the absolute lifetime of a session, counted from creation.
	DefaultSessionTTL = 2 * time.Hour

	// SessionIDBytes is the entropy of a server-side session id.
	SessionIDBytes = 32
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession = "auth:session:"
)
