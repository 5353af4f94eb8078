// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
)

// # Cookie Options

// Options controls the session cookie shared by every backend.
type Options struct {
	// Name of the cookie. Defaults to [constants.SessionCookieName].
	Name string
	// TTL is the absolute session lifetime. Defaults to [constants.DefaultSessionTTL].
	TTL time.Duration
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

func (options Options) withDefaults() Options {
	if options.Name == "" {
		options.Name = constants.SessionCookieName
	}
	if options.TTL <= 0 {
		options.TTL = constants.DefaultSessionTTL
	}
	return options
}

// cookie builds the session cookie. A zero expiresAt deletes it.
func (options Options) cookie(value string, expiresAt time.Time, now time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     options.Name,
		Value:    value,
		Path:     constants.SessionCookiePath,
		HttpOnly: true,
		Secure:   options.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if expiresAt.IsZero() {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		return cookie
	}

	cookie.Expires = expiresAt
	cookie.MaxAge = max(int(expiresAt.Sub(now).Seconds()), 1)
	return cookie
}

// # Signed Cookie Store

// cookieClaims is the JWT payload of a cookie-backed session.
type cookieClaims struct {
	jwt.RegisteredClaims

	Values map[string]string `json:"vals"`
}

// ErrInvalidSecret is returned when the signing key is shorter than 32 bytes.
var ErrInvalidSecret = errors.New("session: secret must be at least 32 bytes")

// MinSecretBytes is the shortest accepted HS256 key.
const MinSecretBytes = 32

// CookieStore keeps the whole session client-side in an HS256-signed JWT.
//
// The payload is signed, not encrypted: it must never hold anything the
// browser should not read. Here it only holds the user id.
type CookieStore struct {
	secret  []byte
	options Options
	now     func() time.Time
}

// NewCookieStore builds a signed cookie store.
func NewCookieStore(secret []byte, options Options) (*CookieStore, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrInvalidSecret
	}

	return &CookieStore{
		secret:  secret,
		options: options.withDefaults(),
		now:     time.Now,
	}, nil
}

// Load parses and verifies the session cookie.
//
// Any verification failure (bad signature, wrong algorithm, expiry, foreign
// issuer) yields a fresh session; the request proceeds anonymously.
func (store *CookieStore) Load(_ context.Context, request *http.Request) (*Session, error) {
	now := store.now()

	cookie, err := request.Cookie(store.options.Name)
	if err != nil || cookie.Value == "" {
		return newSession(now, store.options.TTL), nil
	}

	claims := &cookieClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims,
		func(*jwt.Token) (any, error) { return store.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(constants.SessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(store.now),
	)
	if err != nil {
		return newSession(now, store.options.TTL), nil
	}

	return restore("", claims.Values, claims.ExpiresAt.Time), nil
}

// Save signs the session into the cookie, or expires the cookie when the
// session has been emptied.
func (store *CookieStore) Save(_ context.Context, writer http.ResponseWriter, session *Session) error {
	if !session.Modified() {
		return nil
	}

	now := store.now()
	_, values, expiresAt, renewed := session.snapshot()

	// 1. Nothing left to keep: drop the cookie
	if len(values) == 0 {
		http.SetCookie(writer, store.options.cookie("", time.Time{}, now))
		session.committed("", expiresAt)
		return nil
	}

	// 2. Expiry is carried over unchanged; only Renew moves it
	if renewed {
		expiresAt = now.Add(store.options.TTL)
	}

	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.SessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Values: values,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(store.secret)
	if err != nil {
		return fmt.Errorf("session_cookie_sign_failed: %w", err)
	}

	http.SetCookie(writer, store.options.cookie(signed, expiresAt, now))
	session.committed("", expiresAt)
	return nil
}
