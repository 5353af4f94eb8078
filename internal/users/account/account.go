// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account defines the user identity entity and its persistence contract.

# Architecture

This layer is the "Truth" of the system. The [User] entity, its [Flags]
bitfield and the [Repository] contract have no HTTP knowledge; the auth
package builds sessions and security tokens on top of them.
*/
package account

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// # Domain Entities

// User represents a registered member of the platform.
type User struct {
	ID       string
	Username string
	Email    string

	// Password is the bcrypt digest. Never plaintext, never serialized.
	Password string

	// Secret holds optional second-factor material. It is nil until the
	// two-factor flag workflow provisions it.
	Secret *string

	Flags     Flags
	CreatedAt time.Time
}

// HasFlag reports whether every bit of flag is set on the user.
func (user *User) HasFlag(flag Flags) bool {
	return user.Flags.Has(flag)
}

// SetFlag turns the given bits on.
func (user *User) SetFlag(flag Flags) {
	user.Flags = user.Flags.Set(flag)
}

// UnsetFlag turns the given bits off.
func (user *User) UnsetFlag(flag Flags) {
	user.Flags = user.Flags.Unset(flag)
}

// AvatarHash returns the Gravatar hash of the user's email.
//
// The email is trimmed and lowercased before hashing. The value is derived on
// demand and is never persisted; login lookups do not use this normalization.
func (user *User) AvatarHash() string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(user.Email))))
	return hex.EncodeToString(sum[:])
}

// # Serialization

// publicUser is the JSON projection of a [User].
type publicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Flags         Flags     `json:"flags"`
	Admin         bool      `json:"admin"`
	Suspended     bool      `json:"suspended"`
	TwoFactorAuth bool      `json:"two_factor_auth"`
	EmailVerified bool      `json:"email_verified"`
	AvatarHash    string    `json:"avatar_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

// MarshalJSON expands the flag bits into named booleans and adds the avatar
// hash. The password digest and the secret are explicitly omitted.
func (user User) MarshalJSON() ([]byte, error) {
	return json.Marshal(publicUser{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		Flags:         user.Flags,
		Admin:         user.HasFlag(FlagAdmin),
		Suspended:     user.HasFlag(FlagSuspended),
		TwoFactorAuth: user.HasFlag(FlagTwoFactorAuth),
		EmailVerified: user.HasFlag(FlagEmailVerified),
		AvatarHash:    user.AvatarHash(),
		CreatedAt:     user.CreatedAt,
	})
}

// # Field Identifiers

// Form field names shared by validation and the HTML forms.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
)
