// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/yomira-accounts/internal/platform/apperr"
	"github.com/taibuivan/yomira-accounts/internal/platform/database/schema"
	"github.com/taibuivan/yomira-accounts/internal/platform/dberr"
	"github.com/taibuivan/yomira-accounts/pkg/uuid"
)

// DBTX is the subset of [pgxpool.Pool] used by the repository.
//
// Each call checks a connection out of the pool for a single statement and
// returns it as soon as the row is scanned.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// # User Repository

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var (
	table = schema.Users

	insertUserQuery = fmt.Sprintf(
		`INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, NULL, 0) RETURNING %s`,
		table.Table, table.ID, table.Username, table.Email, table.Password, table.Secret, table.Flags, table.CreatedAt,
	)
	findUserByIDQuery    = table.SelectAll() + ` WHERE ` + table.ID + ` = $1`
	findUserByEmailQuery = table.SelectAll() + ` WHERE ` + table.Email + ` = $1`
)

/*
Insert persists a new user record into the users table.

Description: Uniqueness of the email is enforced by the table constraint,
not by a prior lookup, so two concurrent registrations cannot both succeed.

Parameters:
  - context: context.Context
  - username: string
  - email: string
  - passwordDigest: string

Returns:
  - *User: The stored entity
  - error: apperr.Conflict on duplicate email, apperr.StoreUnavailable otherwise
*/
func (repository *PostgresRepository) Insert(context context.Context, username, email, passwordDigest string) (*User, error) {
	user := &User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Password: passwordDigest,
	}

	err := repository.db.QueryRow(context, insertUserQuery, user.ID, user.Username, user.Email, user.Password).Scan(&user.CreatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			conflict := apperr.Conflict("Email is already registered")
			conflict.Cause = err
			return nil, conflict
		}
		return nil, dberr.Wrap(err, "postgres_user_repo_insert_failed")
	}

	return user, nil
}

/*
FindByID retrieves a user record by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity, nil when absent
  - error: apperr.StoreUnavailable
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, findUserByIDQuery, id, "postgres_user_repo_find_by_id_failed")
}

/*
FindByEmail retrieves a user record by its email address (exact match).

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity, nil when absent
  - error: apperr.StoreUnavailable
*/
func (repository *PostgresRepository) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findOne(context, findUserByEmailQuery, email, "postgres_user_repo_find_by_email_failed")
}

// findOne scans a single user row, mapping [dberr.ErrNotFound] to (nil, nil).
func (repository *PostgresRepository) findOne(context context.Context, query, argument, action string) (*User, error) {
	user := &User{}
	err := repository.db.QueryRow(context, query, argument).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.Secret,
		&user.Flags,
		&user.CreatedAt,
	)

	if err != nil {
		wrapped := dberr.Wrap(err, action)
		if errors.Is(wrapped, dberr.ErrNotFound) {
			return nil, nil
		}
		return nil, wrapped
	}

	return user, nil
}
