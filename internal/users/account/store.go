// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import "context"

// # User Data Access

// Repository defines the data access contract for user accounts.
//
// # Failure Semantics
//
// A missing row is not an error: finders return (nil, nil). Every other
// failure is an [apperr.AppError] with code STORE_UNAVAILABLE, except a
// duplicate email on insert which is a CONFLICT. No method retries.
type Repository interface {

	/*
		Insert persists a brand-new account and returns it.

		Parameters:
		  - context: context.Context
		  - username: string
		  - email: string (unique)
		  - passwordDigest: string

		Returns:
		  - *User: Created entity with a fresh ID, no secret and zero flags
		  - error: Conflict on duplicate email, StoreUnavailable otherwise
	*/
	Insert(context context.Context, username, email, passwordDigest string) (*User, error)

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity, or nil when absent
		  - error: StoreUnavailable
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email (exact match).

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity, or nil when absent
		  - error: StoreUnavailable
	*/
	FindByEmail(context context.Context, email string) (*User, error)
}
