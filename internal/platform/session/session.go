// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements server-issued browser sessions.

A [Session] is a small string key/value bag bound to one browser through the
yomira_session cookie. Two [Store] backends are provided:

  - CookieStore: the whole bag travels in the cookie as an HS256-signed JWT.
  - RedisStore: the cookie carries a random id; values live in a Redis hash.

Both enforce a fixed absolute lifetime counted from creation. A tampered,
unknown or expired cookie loads as an empty session, never as an error.

[Middleware] loads the session before the handler runs and commits it before
the first byte of the response is written.
*/
package session

import (
	"context"
	"maps"
	"net/http"
	"sync"
	"time"
)

// Store persists sessions between requests.
type Store interface {
	// Load returns the session carried by the request, or a fresh one when the
	// request has none (or an invalid one). An error means the backend itself failed.
	Load(context context.Context, request *http.Request) (*Session, error)

	// Save writes the session back. Unmodified sessions are left alone; an
	// emptied session is deleted and its cookie expired.
	Save(context context.Context, writer http.ResponseWriter, session *Session) error
}

// Session is the per-browser value bag.
//
// A Session belongs to one request at a time; the mutex only guards against
// handlers that fan work out to goroutines.
type Session struct {
	mu sync.Mutex

	id        string
	values    map[string]string
	expiresAt time.Time

	modified bool
	renewed  bool
}

// newSession creates an empty session whose lifetime starts now.
func newSession(now time.Time, ttl time.Duration) *Session {
	return &Session{
		values:    make(map[string]string),
		expiresAt: now.Add(ttl),
	}
}

// restore rebuilds a session read back from a store.
func restore(id string, values map[string]string, expiresAt time.Time) *Session {
	if values == nil {
		values = make(map[string]string)
	}
	return &Session{id: id, values: values, expiresAt: expiresAt}
}

// # Accessors

// Get returns the value stored under key.
func (session *Session) Get(key string) (string, bool) {
	session.mu.Lock()
	defer session.mu.Unlock()

	value, ok := session.values[key]
	return value, ok
}

// Set stores value under key.
func (session *Session) Set(key, value string) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if current, ok := session.values[key]; ok && current == value {
		return
	}
	session.values[key] = value
	session.modified = true
}

// Remove deletes key. Removing an absent key is a no-op.
func (session *Session) Remove(key string) {
	session.mu.Lock()
	defer session.mu.Unlock()

	if _, ok := session.values[key]; !ok {
		return
	}
	delete(session.values, key)
	session.modified = true
}

// Renew asks the store to restart the lifetime of the session on the next
// save and, for server-side backends, to rotate its id. Call it whenever the
// privilege level changes (login, registration).
func (session *Session) Renew() {
	session.mu.Lock()
	defer session.mu.Unlock()

	session.renewed = true
	session.modified = true
}

// Len reports the number of stored keys.
func (session *Session) Len() int {
	session.mu.Lock()
	defer session.mu.Unlock()
	return len(session.values)
}

// Modified reports whether the session needs to be written back.
func (session *Session) Modified() bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.modified
}

// ExpiresAt is the absolute expiry of the session.
func (session *Session) ExpiresAt() time.Time {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.expiresAt
}

// snapshot copies the state a store needs to persist.
func (session *Session) snapshot() (id string, values map[string]string, expiresAt time.Time, renewed bool) {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.id, maps.Clone(session.values), session.expiresAt, session.renewed
}

// committed records the outcome of a successful save.
func (session *Session) committed(id string, expiresAt time.Time) {
	session.mu.Lock()
	defer session.mu.Unlock()

	session.id = id
	session.expiresAt = expiresAt
	session.modified = false
	session.renewed = false
}

// # Context Plumbing

type contextKey struct{}

// WithSession returns a context carrying session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}

// FromContext returns the session loaded by [Middleware], or nil.
func FromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(contextKey{}).(*Session)
	return session
}
