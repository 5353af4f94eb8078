// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-accounts/internal/users/account"
)

/*
TestUser_AvatarHash uses the reference value published in the Gravatar documentation.
*/
func TestUser_AvatarHash(t *testing.T) {
	user := &account.User{Email: "  MyEmailAddress@example.com "}
	assert.Equal(t, "0bc83cb571cd1c50ba6f3e8a78ef1346", user.AvatarHash())

	// The stored email itself is untouched.
	assert.Equal(t, "  MyEmailAddress@example.com ", user.Email)
}

/*
TestUser_MarshalJSON checks the public projection never leaks credentials.
*/
func TestUser_MarshalJSON(t *testing.T) {
	secret := "JBSWY3DPEHPK3PXP"
	user := account.User{
		ID:        "0190c7a4-0000-7000-8000-000000000001",
		Username:  "alice",
		Email:     "a@x.com",
		Password:  "$2a$10$digest",
		Secret:    &secret,
		Flags:     account.FlagAdmin | account.FlagEmailVerified,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "alice", decoded["username"])
	assert.Equal(t, float64(9), decoded["flags"])
	assert.Equal(t, true, decoded["admin"])
	assert.Equal(t, false, decoded["suspended"])
	assert.Equal(t, false, decoded["two_factor_auth"])
	assert.Equal(t, true, decoded["email_verified"])
	assert.Equal(t, user.AvatarHash(), decoded["avatar_hash"])

	assert.NotContains(t, decoded, "password")
	assert.NotContains(t, decoded, "secret")
	assert.NotContains(t, string(raw), secret)
	assert.NotContains(t, string(raw), "$2a$10$digest")
}
