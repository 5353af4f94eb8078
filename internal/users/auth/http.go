// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-accounts/internal/platform/apperr"
	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
	"github.com/taibuivan/yomira-accounts/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-accounts/internal/platform/render"
	"github.com/taibuivan/yomira-accounts/internal/platform/respond"
	"github.com/taibuivan/yomira-accounts/internal/platform/session"
)

// Handler serves the account pages and form posts.
//
// # Scope
//
// Index, registration, login, profile and logout, plus the JSON view of the
// current account. Every route reads identity through [TokenFrom]; only
// login, registration and logout write the session.
type Handler struct {
	service  *Service
	renderer *render.Renderer
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, renderer *render.Renderer) *Handler {
	return &Handler{service: service, renderer: renderer}
}

// Routes returns a [chi.Router] with the account routes.
//
// credentialLimit wraps the two credential posts; nil disables it.
//
// # Endpoints
//   - GET  /          : Landing page (guests only)
//   - GET  /login     : Login form (guests only)
//   - POST /login     : Verifies credentials, starts the session
//   - GET  /register  : Registration form (guests only)
//   - POST /register  : Creates the account, starts the session
//   - GET  /profile   : Current account (authenticated)
//   - GET  /logout    : Ends the session
//   - GET  /api/v1/me : Current account as JSON (authenticated)
func (handler *Handler) Routes(credentialLimit func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	if credentialLimit == nil {
		credentialLimit = func(next http.Handler) http.Handler { return next }
	}

	router.Group(func(guest chi.Router) {
		guest.Use(redirectAuthenticated(PathProfile))

		guest.Get(PathIndex, handler.index)
		guest.Get(PathLogin, handler.loginPage)
		guest.Get(PathRegister, handler.registerPage)
		guest.With(credentialLimit).Post(PathLogin, handler.login)
		guest.With(credentialLimit).Post(PathRegister, handler.register)
	})

	router.With(RequireAuthenticated(PathLogin)).Get(PathProfile, handler.profile)
	router.Get(PathLogout, handler.logout)
	router.With(RequireUser).Get(PathMe, handler.me)

	router.NotFound(handler.NotFound)

	return router
}

// # Pages

func (handler *Handler) index(writer http.ResponseWriter, request *http.Request) {
	handler.render(writer, request, http.StatusOK, render.PageIndex, render.Page{})
}

func (handler *Handler) loginPage(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	var data render.Page

	if query.Get("error") == "invalid_credentials" {
		data.Error = "Invalid email or password."
	}
	if query.Get("logout") != "" {
		data.Notice = "You have been logged out."
	}

	handler.render(writer, request, http.StatusOK, render.PageLogin, data)
}

func (handler *Handler) registerPage(writer http.ResponseWriter, request *http.Request) {
	var data render.Page

	switch request.URL.Query().Get("error") {
	case "email_taken":
		data.Error = "That email address is already registered."
	case "invalid_input":
		data.Error = "Please check the form and try again."
	}

	handler.render(writer, request, http.StatusOK, render.PageRegister, data)
}

func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	handler.render(writer, request, http.StatusOK, render.PageProfile, render.Page{})
}

// NotFound renders the 404 page.
func (handler *Handler) NotFound(writer http.ResponseWriter, request *http.Request) {
	handler.render(writer, request, http.StatusNotFound, render.PageError, render.Page{
		Title:   "Page not found",
		Message: "The page you are looking for does not exist.",
	})
}

// # Form Posts

/*
register handles POST /register.

Returns:
  - 303 /profile on success, with user_id in the session
  - 303 /register?error=email_taken for a duplicate email
  - 303 /register?error=invalid_input for validation failures
  - The error page for anything else; the session is untouched
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	// 1. Payload extraction
	if !parseForm(writer, request) {
		http.Redirect(writer, request, redirectInvalidInput, http.StatusSeeOther)
		return
	}

	// 2. Application execution
	user, err := handler.service.Register(ctx, RegisterInput{
		Username: request.PostFormValue(formUsername),
		Email:    request.PostFormValue(formEmail),
		Password: request.PostFormValue(formPassword),
	})

	switch {
	case apperr.HasCode(err, apperr.CodeConflict):
		http.Redirect(writer, request, redirectEmailTaken, http.StatusSeeOther)
		return
	case apperr.HasCode(err, apperr.CodeValidation):
		http.Redirect(writer, request, redirectInvalidInput, http.StatusSeeOther)
		return
	case err != nil:
		handler.failure(writer, request, err)
		return
	}

	// 3. Start the session
	if !handler.signIn(writer, request, user.ID) {
		return
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "account_registered", slog.String("user_id", user.ID))
	http.Redirect(writer, request, PathProfile, http.StatusSeeOther)
}

/*
login handles POST /login.

Returns:
  - 303 /profile on success, with user_id in the session
  - 303 /login?error=invalid_credentials for an unknown email or wrong password
  - The error page for anything else; the session is untouched
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	// 1. Payload extraction
	if !parseForm(writer, request) {
		http.Redirect(writer, request, redirectInvalidCredentials, http.StatusSeeOther)
		return
	}

	// 2. Application execution
	user, err := handler.service.Login(ctx, LoginInput{
		Email:    request.PostFormValue(formEmail),
		Password: request.PostFormValue(formPassword),
	})

	switch {
	case apperr.HasCode(err, apperr.CodeInvalidCredentials):
		http.Redirect(writer, request, redirectInvalidCredentials, http.StatusSeeOther)
		return
	case err != nil:
		handler.failure(writer, request, err)
		return
	}

	// 3. Start the session
	if !handler.signIn(writer, request, user.ID) {
		return
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "account_logged_in", slog.String("user_id", user.ID))
	http.Redirect(writer, request, PathProfile, http.StatusSeeOther)
}

// logout handles GET /logout. It always lands on the logged-out page.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if TokenFrom(request.Context()).IsAuthenticated() {
		if current := session.FromContext(request.Context()); current != nil {
			current.Remove(constants.SessionKeyUserID)
		}
	}

	http.Redirect(writer, request, redirectLoggedOut, http.StatusSeeOther)
}

// # API

// me handles GET /api/v1/me.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	user, err := CurrentUser(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

// # Helpers

// signIn renews the session and stores the identity key. A missing session
// means the session middleware is not mounted; that is a wiring error.
func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request, userID string) bool {
	current := session.FromContext(request.Context())
	if current == nil {
		handler.failure(writer, request, apperr.Internal(errMissingSession))
		return false
	}

	current.Renew()
	current.Set(constants.SessionKeyUserID, userID)
	return true
}

// failure logs err and renders the error page with its status.
func (handler *Handler) failure(writer http.ResponseWriter, request *http.Request, err error) {
	ctx := request.Context()

	status := http.StatusInternalServerError
	if appErr := apperr.As(err); appErr != nil && appErr.HTTPStatus >= http.StatusInternalServerError {
		status = appErr.HTTPStatus
	}

	ctxutil.GetLogger(ctx).ErrorContext(ctx, "account_request_failed",
		slog.Int("status", status),
		slog.Any("error", err),
	)

	handler.render(writer, request, status, render.PageError, render.Page{
		Title:   "Something went wrong",
		Message: "We could not complete your request. Please try again.",
	})
}

// render fills in the visitor and writes the page. Template failures fall
// back to a plain-text 500.
func (handler *Handler) render(writer http.ResponseWriter, request *http.Request, status int, page string, data render.Page) {
	ctx := request.Context()

	if user, ok := TokenFrom(ctx).User(); ok {
		data.User = &user
	}

	if err := handler.renderer.HTML(writer, status, page, data); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "page_render_failed",
			slog.String("page", page),
			slog.Any("error", err),
		)
		http.Error(writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// parseForm caps and parses the request body.
func parseForm(writer http.ResponseWriter, request *http.Request) bool {
	request.Body = http.MaxBytesReader(writer, request.Body, maxFormBytes)
	return request.ParseForm() == nil
}

// redirectAuthenticated sends visitors who already have an identity to target.
func redirectAuthenticated(target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if TokenFrom(request.Context()).IsAuthenticated() {
				http.Redirect(writer, request, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
