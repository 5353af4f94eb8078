// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pipeline owns the request scope: the typed, per-request record that
interceptors populate before any handler runs.

Flow:

  - [Run] builds a [Scope] from the loaded session.
  - Each [Interceptor] receives the scope and returns the next one.
  - The final scope is attached to the request context once, under a private key.

Handlers only read the scope through [FromContext]; it is never rebuilt
mid-request, so every handler of a request observes the same identity.
*/
package pipeline

import (
	"context"
	"net/http"

	"github.com/taibuivan/yomira-accounts/internal/platform/session"
	"github.com/taibuivan/yomira-accounts/internal/users/account"
)

// Scope is the request-scoped state shared by interceptors and handlers.
type Scope struct {
	// Session is the browser session loaded by [session.Middleware]. May be nil
	// when the session middleware is not mounted.
	Session *session.Session

	// User is the resolved account snapshot, nil for anonymous requests.
	User *account.User
}

// Interceptor inspects the request and returns the (possibly enriched) scope.
type Interceptor func(request *http.Request, scope Scope) Scope

type scopeKey struct{}

// Run executes interceptors in order and attaches the resulting scope.
//
// A request that already carries a scope passes through untouched, so
// mounting Run twice never resolves the identity twice.
func Run(interceptors ...Interceptor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if _, ok := FromContext(request.Context()); ok {
				next.ServeHTTP(writer, request)
				return
			}

			scope := Scope{Session: session.FromContext(request.Context())}
			for _, intercept := range interceptors {
				scope = intercept(request, scope)
			}

			next.ServeHTTP(writer, request.WithContext(WithScope(request.Context(), scope)))
		})
	}
}

// WithScope attaches scope to ctx. Tests use it to fake a resolved request.
func WithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// FromContext returns the scope attached by [Run].
func FromContext(ctx context.Context) (Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(Scope)
	return scope, ok
}
