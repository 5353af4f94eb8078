// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements identity for the accounts site.

It turns the session cookie into a trusted, request-scoped identity and
drives the registration, login and logout flows.

Architecture:

  - Service: Credential checks and account creation (Register, Login).
  - ResolveIdentity: Pipeline interceptor binding the session to a user once per request.
  - SecurityToken: The two-state (anonymous/authenticated) view handlers branch on.
  - Handler: Server-rendered pages and form posts.

Only the session key user_id is ever written; the account row is re-read on
every request, so deleted accounts lose access immediately.
*/
package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/yomira-accounts/internal/platform/apperr"
	"github.com/taibuivan/yomira-accounts/internal/platform/sec"
	"github.com/taibuivan/yomira-accounts/internal/platform/validate"
	"github.com/taibuivan/yomira-accounts/internal/users/account"
)

// # Contracts & Types

// PasswordHasher is the credential codec used by [Service].
type PasswordHasher interface {
	Hash(ctx context.Context, plainTextPassword string) (string, error)
	Verify(ctx context.Context, plainTextPassword, digest string) (bool, error)
}

// Service implements the registration and login use cases.
type Service struct {
	users  account.Repository
	hasher PasswordHasher

	// dummyDigest is verified against when the email is unknown, so both
	// failure paths spend the same bcrypt time.
	dummyMu     sync.Mutex
	dummyDigest string
}

// NewService constructs a new [Service] with its dependencies.
func NewService(users account.Repository, hasher PasswordHasher) *Service {
	return &Service{users: users, hasher: hasher}
}

// # Registration Flow

// RegisterInput holds the data submitted by the registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: The username is trimmed and NFC-normalized; the email is stored
exactly as submitted. Uniqueness is left to the store, so a concurrent
duplicate surfaces as a Conflict rather than a second row.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *account.User: Created entity
  - error: ValidationError, Conflict, StoreUnavailable or hashing failures
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*account.User, error) {

	// 1. Reject bytes the store cannot hold; NFC would mask invalid UTF-8
	validator := &validate.Validator{}
	validator.Text(account.FieldUsername, input.Username).
		Text(account.FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 2. Canonicalize the display name so visually equal names compare equal
	username := norm.NFC.String(strings.TrimSpace(input.Username))

	// 3. Validate before spending any bcrypt time
	validator.Required(account.FieldUsername, username).
		MaxLen(account.FieldUsername, username, MaxUsernameLength).
		Required(account.FieldEmail, input.Email).
		Email(account.FieldEmail, input.Email).
		MaxLen(account.FieldEmail, input.Email, MaxEmailLength).
		Required(account.FieldPassword, input.Password).
		MinLen(account.FieldPassword, input.Password, MinPasswordLength).
		MaxBytes(account.FieldPassword, input.Password, sec.MaxPasswordBytes)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// 4. Never store plaintext
	digest, err := service.hasher.Hash(context, input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// 5. Persist; the unique constraint decides duplicate emails
	user, err := service.users.Insert(context, username, input.Email, digest)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput holds the credentials submitted by the login form.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login verifies credentials and returns the matching account.

Description: Unknown emails and wrong passwords produce the same
InvalidCredentials error after the same amount of hashing work.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *account.User: The authenticated account
  - error: InvalidCredentials, StoreUnavailable or verification failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*account.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, apperr.InvalidCredentials()
	}

	// 1. An email the store cannot hold cannot belong to an account
	if !validate.IsText(input.Email) {
		return nil, service.unknownEmail(context, input.Password)
	}

	// 2. Exact email lookup
	user, err := service.users.FindByEmail(context, input.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
	}

	// 3. Unknown email: burn the same bcrypt time, then fail generically
	if user == nil {
		return nil, service.unknownEmail(context, input.Password)
	}

	// 4. Constant-time comparison inside bcrypt
	matched, err := service.hasher.Verify(context, input.Password, user.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_verify_failed: %w", err)
	}
	if !matched {
		return nil, apperr.InvalidCredentials()
	}

	return user, nil
}

// unknownEmail verifies against the dummy digest and returns InvalidCredentials.
func (service *Service) unknownEmail(context context.Context, password string) error {
	if digest := service.dummy(context); digest != "" {
		_, _ = service.hasher.Verify(context, password, digest)
	}
	return apperr.InvalidCredentials()
}

// dummy lazily hashes a throwaway password at the configured cost.
// The hash runs outside the lock, so concurrent first callers may each hash
// once; the first stored digest wins. An empty result (hashing failed) only
// skips the timing equalization and the next call retries.
func (service *Service) dummy(context context.Context) string {
	service.dummyMu.Lock()
	digest := service.dummyDigest
	service.dummyMu.Unlock()

	if digest != "" {
		return digest
	}

	digest, err := service.hasher.Hash(context, "yomira-timing-equalizer")
	if err != nil {
		return ""
	}

	service.dummyMu.Lock()
	defer service.dummyMu.Unlock()

	if service.dummyDigest == "" {
		service.dummyDigest = digest
	}
	return service.dummyDigest
}
