// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/yomira-accounts/internal/platform/apperr"
	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
	"github.com/taibuivan/yomira-accounts/internal/platform/respond"
)

// # Rate Limiting

type rateLimitClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP using a token bucket.
//
// The registry of buckets is owned by the limiter value, not the package;
// construct one per protected surface and call [RateLimiter.Run] to prune it.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitClient

	limit rate.Limit
	burst int
}

// NewRateLimiter creates a limiter allowing rps sustained requests and burst
// spikes per IP.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*rateLimitClient),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

// Run prunes idle clients every [constants.RateLimitCleanupInterval] until ctx is cancelled.
func (limiter *RateLimiter) Run(context context.Context) {
	ticker := time.NewTicker(constants.RateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			limiter.Prune(time.Now().Add(-constants.RateLimitClientTTL))
		case <-context.Done():
			// Stop the goroutine when the application shuts down
			return
		}
	}
}

// Prune forgets clients not seen since cutoff and reports how many were removed.
func (limiter *RateLimiter) Prune(cutoff time.Time) int {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	removed := 0
	for ip, clientInfo := range limiter.clients {
		if clientInfo.lastSeen.Before(cutoff) {
			delete(limiter.clients, ip)
			removed++
		}
	}
	return removed
}

// Reserve consumes a token for key. It returns zero when the request may
// proceed, otherwise how long the client should wait.
func (limiter *RateLimiter) Reserve(key string) time.Duration {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	clientInfo, found := limiter.clients[key]

	// Initialize a new limiter if this is a fresh IP
	if !found {
		clientInfo = &rateLimitClient{limiter: rate.NewLimiter(limiter.limit, limiter.burst)}
		limiter.clients[key] = clientInfo
	}

	// Update the activity timestamp
	now := time.Now()
	clientInfo.lastSeen = now

	if clientInfo.limiter.AllowN(now, 1) {
		return 0
	}

	// Report the time until the next token without consuming one
	reservation := clientInfo.limiter.ReserveN(now, 1)
	delay := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	if delay <= 0 || !reservation.OK() {
		delay = time.Second
	}
	return delay
}

// Middleware rejects over-limit requests with 429 and a Retry-After header.
func (limiter *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		wait := limiter.Reserve(RealIP(request))
		if wait > 0 {
			seconds := int(math.Ceil(wait.Seconds()))
			writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(seconds))
			respond.Error(writer, request, apperr.RateLimited(seconds))
			return
		}

		next.ServeHTTP(writer, request)
	})
}
