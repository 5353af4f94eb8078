// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-accounts/internal/platform/apperr"
	"github.com/taibuivan/yomira-accounts/internal/users/account"
)

func TestMemoryRepository_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	repository := account.NewMemoryRepository()

	user, err := repository.Insert(ctx, "alice", "a@x.com", "digest")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Nil(t, user.Secret)
	assert.Equal(t, account.Flags(0), user.Flags)
	assert.False(t, user.CreatedAt.IsZero())

	byID, err := repository.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, *user, *byID)

	byEmail, err := repository.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)
}

/*
TestMemoryRepository_AbsentIsNotAnError verifies finders return (nil, nil) on a miss.
*/
func TestMemoryRepository_AbsentIsNotAnError(t *testing.T) {
	ctx := context.Background()
	repository := account.NewMemoryRepository()

	_, err := repository.Insert(ctx, "alice", "a@x.com", "digest")
	require.NoError(t, err)

	user, err := repository.FindByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, user)

	// Lookup is exact: no case folding.
	user, err = repository.FindByEmail(ctx, "A@x.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestMemoryRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repository := account.NewMemoryRepository()

	first, err := repository.Insert(ctx, "alice", "a@x.com", "digest")
	require.NoError(t, err)

	_, err = repository.Insert(ctx, "alice2", "a@x.com", "digest2")
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	// The first row is untouched and no second row exists.
	stored, err := repository.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "alice", stored.Username)
}

/*
TestMemoryRepository_ConcurrentInsertSameEmail ensures exactly one writer wins the race.
*/
func TestMemoryRepository_ConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	repository := account.NewMemoryRepository()

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := repository.Insert(ctx, fmt.Sprintf("user%d", i), "race@x.com", "digest"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestMemoryRepository_SnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	repository := account.NewMemoryRepository()

	user, err := repository.Insert(ctx, "alice", "a@x.com", "digest")
	require.NoError(t, err)

	user.SetFlag(account.FlagAdmin)

	stored, err := repository.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasFlag(account.FlagAdmin))
}

func TestMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repository := account.NewMemoryRepository()

	user, err := repository.Insert(ctx, "alice", "a@x.com", "digest")
	require.NoError(t, err)

	repository.Delete(ctx, user.ID)

	found, err := repository.FindByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.Nil(t, found)

	// The email is free again.
	_, err = repository.Insert(ctx, "alice", "a@x.com", "digest")
	assert.NoError(t, err)
}
