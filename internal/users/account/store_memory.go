// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/yomira-accounts/internal/platform/apperr"
	"github.com/taibuivan/yomira-accounts/pkg/uuid"
)

// MemoryRepository is a process-local [Repository] used by tests and by
// deployments started without DATABASE_URL. Data is lost on restart.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// Insert stores a new account. The email index check and the write happen
// under one lock, mirroring a unique constraint.
func (repository *MemoryRepository) Insert(_ context.Context, username, email, passwordDigest string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, taken := repository.byEmail[email]; taken {
		return nil, apperr.Conflict("Email is already registered")
	}

	user := User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		Password:  passwordDigest,
		CreatedAt: time.Now().UTC(),
	}
	repository.byID[user.ID] = user
	repository.byEmail[email] = user.ID

	return &user, nil
}

// FindByID returns a copy of the stored user, or nil when absent.
func (repository *MemoryRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	user, ok := repository.byID[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// FindByEmail returns a copy of the stored user, or nil when absent.
func (repository *MemoryRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	id, ok := repository.byEmail[email]
	if !ok {
		return nil, nil
	}
	user := repository.byID[id]
	return &user, nil
}

// Delete removes an account. It exists for administrative cleanup and for
// exercising stale-session handling.
func (repository *MemoryRepository) Delete(_ context.Context, id string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if user, ok := repository.byID[id]; ok {
		delete(repository.byEmail, user.Email)
		delete(repository.byID, id)
	}
}
