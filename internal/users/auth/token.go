// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"net/http"

	"github.com/taibuivan/yomira-accounts/internal/platform/apperr"
	"github.com/taibuivan/yomira-accounts/internal/platform/pipeline"
	"github.com/taibuivan/yomira-accounts/internal/platform/respond"
	"github.com/taibuivan/yomira-accounts/internal/users/account"
)

// # Security Token

// Kind distinguishes the two states of a [SecurityToken].
type Kind uint8

const (
	KindAnonymous Kind = iota
	KindAuthenticated
)

// String implements fmt.Stringer.
func (kind Kind) String() string {
	if kind == KindAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// SecurityToken is the identity of the current request: anonymous, or
// authenticated with the account snapshot taken by [ResolveIdentity].
//
// The zero value is anonymous.
type SecurityToken struct {
	kind Kind
	user account.User
}

// Anonymous returns the token of a request without identity.
func Anonymous() SecurityToken {
	return SecurityToken{kind: KindAnonymous}
}

// Authenticated returns the token carrying user.
func Authenticated(user account.User) SecurityToken {
	return SecurityToken{kind: KindAuthenticated, user: user}
}

// Kind reports which variant the token is.
func (token SecurityToken) Kind() Kind { return token.kind }

// IsAuthenticated reports whether the request carries an identity.
func (token SecurityToken) IsAuthenticated() bool { return token.kind == KindAuthenticated }

// User returns the account snapshot and true for authenticated tokens.
func (token SecurityToken) User() (account.User, bool) {
	if token.kind != KindAuthenticated {
		return account.User{}, false
	}
	return token.user, true
}

// TokenFrom derives the token from the request scope. It never touches the
// store; a request that skipped the pipeline is anonymous.
func TokenFrom(ctx context.Context) SecurityToken {
	scope, ok := pipeline.FromContext(ctx)
	if !ok || scope.User == nil {
		return Anonymous()
	}
	return Authenticated(*scope.User)
}

// CurrentUser returns the authenticated account or an Unauthorized error.
func CurrentUser(ctx context.Context) (account.User, error) {
	user, ok := TokenFrom(ctx).User()
	if !ok {
		return account.User{}, apperr.Unauthorized("Authentication required")
	}
	return user, nil
}

// # Guards

// RequireAuthenticated redirects anonymous browser requests to redirectTo.
func RequireAuthenticated(redirectTo string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !TokenFrom(request.Context()).IsAuthenticated() {
				http.Redirect(writer, request, redirectTo, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// RequireUser rejects anonymous API requests with a JSON 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, err := CurrentUser(request.Context()); err != nil {
			respond.Error(writer, request, err)
			return
		}
		next.ServeHTTP(writer, request)
	})
}
