// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
)

// base64 length of a [constants.SessionIDBytes] id.
var sessionIDLength = base64.RawURLEncoding.EncodedLen(constants.SessionIDBytes)

// RedisStore keeps session values server-side in a Redis hash.
//
// Key layout: auth:session:<id> -> {key: value, ...}. The key expires at the
// session's absolute expiry, so Redis reclaims abandoned sessions by itself.
type RedisStore struct {
	client  *redis.Client
	options Options
	now     func() time.Time
}

// NewRedisStore builds a Redis-backed store.
func NewRedisStore(client *redis.Client, options Options) *RedisStore {
	return &RedisStore{
		client:  client,
		options: options.withDefaults(),
		now:     time.Now,
	}
}

func redisKey(id string) string {
	return constants.RedisPrefixSession + id
}

/*
Load resolves the session id carried by the cookie.

Description: A malformed, unknown or expired id yields a fresh session. Only
a failure to reach Redis is reported as an error.

Parameters:
  - context: context.Context
  - request: *http.Request

Returns:
  - *Session: The loaded or fresh session
  - error: Redis connectivity errors
*/
func (store *RedisStore) Load(context context.Context, request *http.Request) (*Session, error) {
	now := store.now()

	cookie, err := request.Cookie(store.options.Name)
	if err != nil || len(cookie.Value) != sessionIDLength {
		return newSession(now, store.options.TTL), nil
	}

	id := cookie.Value
	key := redisKey(id)

	// 1. Read values and remaining lifetime in one round trip
	var (
		valuesCmd *redis.MapStringStringCmd
		ttlCmd    *redis.DurationCmd
	)
	_, err = store.client.Pipelined(context, func(pipe redis.Pipeliner) error {
		valuesCmd = pipe.HGetAll(context, key)
		ttlCmd = pipe.PTTL(context, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis_session_load_failed: %w", err)
	}

	// 2. Missing key or no expiry means nothing trustworthy to restore
	values := valuesCmd.Val()
	ttl := ttlCmd.Val()
	if len(values) == 0 || ttl <= 0 {
		return newSession(now, store.options.TTL), nil
	}

	return restore(id, values, now.Add(ttl)), nil
}

/*
Save writes modified values back to Redis.

Description: A new or renewed session gets a fresh id (the old key is
deleted). The expiry set at creation is re-applied on every write and never
extended, except by Renew.

Parameters:
  - context: context.Context
  - writer: http.ResponseWriter
  - session: *Session

Returns:
  - error: Redis write failures
*/
func (store *RedisStore) Save(context context.Context, writer http.ResponseWriter, session *Session) error {
	if !session.Modified() {
		return nil
	}

	now := store.now()
	previousID, values, expiresAt, renewed := session.snapshot()

	// 1. Emptied session: delete the key and the cookie
	if len(values) == 0 {
		if previousID != "" {
			if err := store.client.Del(context, redisKey(previousID)).Err(); err != nil {
				return fmt.Errorf("redis_session_delete_failed: %w", err)
			}
		}
		http.SetCookie(writer, store.options.cookie("", time.Time{}, now))
		session.committed("", expiresAt)
		return nil
	}

	// 2. Pick the id to write under
	id := previousID
	if id == "" || renewed {
		generated, err := newSessionID()
		if err != nil {
			return err
		}
		id = generated
	}
	if renewed {
		expiresAt = now.Add(store.options.TTL)
	}
	if !expiresAt.After(now) {
		return fmt.Errorf("redis_session_save_failed: session already expired")
	}

	// 3. Replace the hash atomically and pin its expiry
	key := redisKey(id)
	fields := make(map[string]any, len(values))
	for name, value := range values {
		fields[name] = value
	}

	_, err := store.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		if previousID != "" && previousID != id {
			pipe.Del(context, redisKey(previousID))
		}
		pipe.Del(context, key)
		pipe.HSet(context, key, fields)
		pipe.PExpireAt(context, key, expiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_session_save_failed: %w", err)
	}

	http.SetCookie(writer, store.options.cookie(id, expiresAt, now))
	session.committed(id, expiresAt)
	return nil
}

// newSessionID returns a random, URL-safe 256-bit identifier.
func newSessionID() (string, error) {
	buffer := make([]byte, constants.SessionIDBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("session_id_generate_failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
