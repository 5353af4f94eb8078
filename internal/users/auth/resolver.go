// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
	"github.com/taibuivan/yomira-accounts/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-accounts/internal/platform/pipeline"
	"github.com/taibuivan/yomira-accounts/internal/users/account"
)

// ErrStaleSession marks a session whose user_id no longer names an account.
// It is only logged; the request simply continues anonymously.
var ErrStaleSession = errors.New("auth: session references a missing account")

var errMissingSession = errors.New("auth: no session in request context")

/*
ResolveIdentity returns the interceptor that binds the session to an account.

Description: Reads user_id from the session and loads the account. When the
account is gone, or the lookup fails, the key is removed from the session and
the request proceeds anonymously. The interceptor never adds session keys.

Parameters:
  - users: account.Repository

Returns:
  - pipeline.Interceptor: Sets Scope.User on success
*/
func ResolveIdentity(users account.Repository) pipeline.Interceptor {
	return func(request *http.Request, scope pipeline.Scope) pipeline.Scope {
		ctx := request.Context()

		// 1. Identity is decided here and nowhere else
		scope.User = nil
		if scope.Session == nil {
			return scope
		}

		// 2. No key: anonymous, nothing to look up
		userID, ok := scope.Session.Get(constants.SessionKeyUserID)
		if !ok {
			return scope
		}

		// 3. Re-read the account on every request
		user, err := users.FindByID(ctx, userID)
		logger := ctxutil.GetLogger(ctx)

		switch {
		case err != nil:
			scope.Session.Remove(constants.SessionKeyUserID)
			logger.WarnContext(ctx, "identity_lookup_failed",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
			return scope

		case user == nil:
			scope.Session.Remove(constants.SessionKeyUserID)
			logger.InfoContext(ctx, "identity_stale_session",
				slog.String("user_id", userID),
				slog.Any("error", ErrStaleSession),
			)
			return scope
		}

		// 4. Attach the snapshot and tag the access log
		scope.User = user
		ctxutil.Annotate(ctx, slog.String("user_id", user.ID))
		return scope
	}
}
