// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides the credential codec used by registration and login.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing) from the
// domain logic. It is injected into the auth service as an Infrastructure
// dependency, so tests can swap in a cheaper cost.
package sec

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrMalformedDigest indicates that a stored digest could not be decoded.
	// It is distinct from a simple mismatch so that corrupt rows can be logged.
	ErrMalformedDigest = errors.New("sec: malformed password digest")

	// ErrPasswordTooLong is returned for plaintexts above bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("sec: password exceeds 72 bytes")
)

// MaxPasswordBytes is the longest plaintext bcrypt will accept.
const MaxPasswordBytes = 72

// # Password Hasher

// PasswordHasher hashes and verifies passwords with bcrypt.
//
// # Concurrency
//
// bcrypt is CPU-bound by design. The hasher admits at most a fixed number of
// hash/verify operations at a time; extra callers wait for a slot or give up
// when their context is cancelled.
type PasswordHasher struct {
	cost        int
	concurrency int
	slots       *semaphore.Weighted
}

// NewPasswordHasher builds a hasher with the given bcrypt cost and concurrency.
//
// A cost outside bcrypt's valid range falls back to [bcrypt.DefaultCost]; a
// non-positive concurrency falls back to GOMAXPROCS.
func NewPasswordHasher(cost, concurrency int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &PasswordHasher{
		cost:        cost,
		concurrency: concurrency,
		slots:       semaphore.NewWeighted(int64(concurrency)),
	}
}

// Concurrency is the number of hash/verify operations admitted at once.
func (hasher *PasswordHasher) Concurrency() int {
	return hasher.concurrency
}

/*
Hash produces a salted bcrypt digest of the plain-text password.

The salt is embedded in the output, so hashing the same password twice yields
two different digests that both verify.

Parameters:
  - ctx: context.Context (cancels the wait for a hashing slot)
  - plainTextPassword: string

Returns:
  - string: The encoded digest
  - error: ErrPasswordTooLong, context errors, or bcrypt failures
*/
func (hasher *PasswordHasher) Hash(ctx context.Context, plainTextPassword string) (string, error) {
	if len(plainTextPassword) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	if err := hasher.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("sec: waiting for hash slot: %w", err)
	}
	defer hasher.slots.Release(1)

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

/*
Verify compares a plain-text password with a stored digest.

Fails closed: it only returns true when bcrypt confirms the match. A mismatch
yields (false, nil); a digest bcrypt cannot decode yields (false,
ErrMalformedDigest). The comparison itself is constant-time inside bcrypt.

Parameters:
  - ctx: context.Context
  - plainTextPassword: string
  - digest: string

Returns:
  - bool: true only on a confirmed match
  - error: ErrMalformedDigest or context errors
*/
func (hasher *PasswordHasher) Verify(ctx context.Context, plainTextPassword, digest string) (bool, error) {
	// No stored digest was produced from more than 72 bytes; bcrypt would
	// otherwise compare only the prefix.
	if len(plainTextPassword) > MaxPasswordBytes {
		return false, nil
	}

	if err := hasher.slots.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("sec: waiting for verify slot: %w", err)
	}
	defer hasher.slots.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plainTextPassword))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}
}
