// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-accounts/internal/platform/constants"
	"github.com/taibuivan/yomira-accounts/internal/platform/pipeline"
	"github.com/taibuivan/yomira-accounts/internal/platform/render"
	"github.com/taibuivan/yomira-accounts/internal/platform/session"
	"github.com/taibuivan/yomira-accounts/internal/users/account"
	"github.com/taibuivan/yomira-accounts/internal/users/auth"
	"github.com/taibuivan/yomira-accounts/web"
)

// # Test Site

// testSite is the account site behind a real listener, driven by a browser-like client.
type testSite struct {
	server *httptest.Server
	users  *account.MemoryRepository
}

type result struct {
	status   int
	location string
	body     string
}

func newSite(t *testing.T) *testSite {
	t.Helper()

	users := account.NewMemoryRepository()
	renderer, err := render.New(web.Templates())
	require.NoError(t, err)

	store, err := session.NewCookieStore([]byte(strings.Repeat("s", session.MinSecretBytes)), session.Options{TTL: time.Hour})
	require.NoError(t, err)

	handler := auth.NewHandler(auth.NewService(users, newHasher()), renderer)

	router := chi.NewRouter()
	router.Use(session.Middleware(store))
	router.Use(pipeline.Run(auth.ResolveIdentity(users)))
	router.Mount("/", handler.Routes(nil))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testSite{server: server, users: users}
}

// browser returns a client with its own cookie jar that does not follow redirects.
func (site *testSite) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (site *testSite) get(t *testing.T, client *http.Client, path string) result {
	t.Helper()
	response, err := client.Get(site.server.URL + path)
	require.NoError(t, err)
	return read(t, response)
}

func (site *testSite) post(t *testing.T, client *http.Client, path string, form url.Values) result {
	t.Helper()
	response, err := client.PostForm(site.server.URL+path, form)
	require.NoError(t, err)
	return read(t, response)
}

func (site *testSite) cookies(client *http.Client) []*http.Cookie {
	target, _ := url.Parse(site.server.URL)
	return client.Jar.Cookies(target)
}

func read(t *testing.T, response *http.Response) result {
	t.Helper()
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)

	return result{
		status:   response.StatusCode,
		location: response.Header.Get("Location"),
		body:     string(body),
	}
}

func registration(username, email, password string) url.Values {
	return url.Values{"username": {username}, "email": {email}, "password": {password}}
}

func credentials(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

// meID returns the id reported by /api/v1/me, or "" when anonymous.
func (site *testSite) meID(t *testing.T, client *http.Client) string {
	t.Helper()
	response := site.get(t, client, auth.PathMe)
	if response.status != http.StatusOK {
		require.Equal(t, http.StatusUnauthorized, response.status)
		return ""
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(response.body), &envelope))
	assert.NotContains(t, envelope.Data, "password")
	assert.NotContains(t, envelope.Data, "secret")

	id, _ := envelope.Data["id"].(string)
	return id
}

// # Scenarios

/*
TestHandler_EndToEnd walks the register, logout, login and logout cycle.
*/
func TestHandler_EndToEnd(t *testing.T) {
	site := newSite(t)
	browser := site.browser(t)

	// 1. Register
	response := site.post(t, browser, auth.PathRegister, registration("alice", "a@x.com", "pw123"))
	require.Equal(t, http.StatusSeeOther, response.status)
	assert.Equal(t, auth.PathProfile, response.location)

	stored, err := site.users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, account.Flags(0), stored.Flags)
	assert.Nil(t, stored.Secret)

	// 2. The session now carries the new id
	assert.Equal(t, stored.ID, site.meID(t, browser))

	response = site.get(t, browser, auth.PathProfile)
	assert.Equal(t, http.StatusOK, response.status)
	assert.Contains(t, response.body, "alice")
	assert.Contains(t, response.body, stored.AvatarHash())

	// 3. Logout clears the identity
	response = site.get(t, browser, auth.PathLogout)
	assert.Equal(t, http.StatusSeeOther, response.status)
	assert.Equal(t, "/login?logout=1", response.location)
	assert.Empty(t, site.meID(t, browser))

	response = site.get(t, browser, auth.PathProfile)
	assert.Equal(t, http.StatusSeeOther, response.status)
	assert.Equal(t, auth.PathLogin, response.location)

	// 4. Login restores it
	response = site.post(t, browser, auth.PathLogin, credentials("a@x.com", "pw123"))
	require.Equal(t, http.StatusSeeOther, response.status)
	assert.Equal(t, auth.PathProfile, response.location)
	assert.Equal(t, stored.ID, site.meID(t, browser))

	// 5. And logout again
	site.get(t, browser, auth.PathLogout)
	assert.Empty(t, site.meID(t, browser))
}

func TestHandler_LoginFailures(t *testing.T) {
	site := newSite(t)
	site.post(t, site.browser(t), auth.PathRegister, registration("alice", "a@x.com", "pw123"))

	tests := []struct {
		name     string
		form     url.Values
		location string
	}{
		{"wrong_password", credentials("a@x.com", "nope1"), "/login?error=invalid_credentials"},
		{"unknown_email", credentials("b@x.com", "pw123"), "/login?error=invalid_credentials"},
		{"other_case_email", credentials("A@x.com", "pw123"), "/login?error=invalid_credentials"},
		{"empty", url.Values{}, "/login?error=invalid_credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			browser := site.browser(t)

			response := site.post(t, browser, auth.PathLogin, tt.form)

			assert.Equal(t, http.StatusSeeOther, response.status)
			assert.Equal(t, tt.location, response.location)
			assert.Empty(t, site.cookies(browser), "failed logins must not touch the session")
			assert.Empty(t, site.meID(t, browser))
		})
	}
}

/*
TestHandler_LoginErrorPage shows the generic message and keeps the email.
*/
func TestHandler_LoginErrorPage(t *testing.T) {
	site := newSite(t)

	response := site.get(t, site.browser(t), "/login?error=invalid_credentials")

	assert.Equal(t, http.StatusOK, response.status)
	assert.Contains(t, response.body, "Invalid email or password.")
	assert.Contains(t, response.body, `value="a@x.com"`)
}

func TestHandler_DuplicateRegistration(t *testing.T) {
	site := newSite(t)
	site.post(t, site.browser(t), auth.PathRegister, registration("alice", "a@x.com", "pw123"))

	browser := site.browser(t)
	response := site.post(t, browser, auth.PathRegister, registration("alice2", "a@x.com", "other1"))

	assert.Equal(t, http.StatusSeeOther, response.status)
	assert.Equal(t, "/register?error=email_taken", response.location)
	assert.Empty(t, site.cookies(browser))

	page := site.get(t, browser, response.location)
	assert.Contains(t, page.body, "already registered")
}

func TestHandler_InvalidRegistration(t *testing.T) {
	site := newSite(t)
	browser := site.browser(t)

	response := site.post(t, browser, auth.PathRegister, registration("", "not-an-email", "pw"))

	assert.Equal(t, http.StatusSeeOther, response.status)
	assert.Equal(t, "/register?error=invalid_input", response.location)
	assert.Empty(t, site.cookies(browser))
}

/*
TestHandler_UnstorableInput reports raw bytes the store cannot hold as a form
error, not an outage.
*/
func TestHandler_UnstorableInput(t *testing.T) {
	site := newSite(t)

	for _, username := range []string{"al\xffice", "al\x00ice"} {
		browser := site.browser(t)

		response := site.post(t, browser, auth.PathRegister, registration(username, "a102@x.com", "pw123"))
		assert.Equal(t, http.StatusSeeOther, response.status)
		assert.Equal(t, "/register?error=invalid_input", response.location)

		response = site.post(t, browser, auth.PathLogin, credentials("a\x00@x.com", "pw123"))
		assert.Equal(t, http.StatusSeeOther, response.status)
		assert.Equal(t, "/login?error=invalid_credentials", response.location)
		assert.Empty(t, site.cookies(browser))
	}

	stored, err := site.users.FindByEmail(context.Background(), "a102@x.com")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

/*
TestHandler_LogoutIsIdempotent always lands on the logged-out page.
*/
func TestHandler_LogoutIsIdempotent(t *testing.T) {
	site := newSite(t)
	browser := site.browser(t)

	for range 2 {
		response := site.get(t, browser, auth.PathLogout)
		assert.Equal(t, http.StatusSeeOther, response.status)
		assert.Equal(t, "/login?logout=1", response.location)
		assert.Empty(t, site.cookies(browser))
	}

	page := site.get(t, browser, "/login?logout=1")
	assert.Contains(t, page.body, "You have been logged out.")
}

/*
TestHandler_DeletedAccount drops a session whose account no longer exists.
*/
func TestHandler_DeletedAccount(t *testing.T) {
	site := newSite(t)
	browser := site.browser(t)

	site.post(t, browser, auth.PathRegister, registration("alice", "a@x.com", "pw123"))
	stored, err := site.users.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotEmpty(t, site.cookies(browser))

	site.users.Delete(context.Background(), stored.ID)

	response := site.get(t, browser, auth.PathProfile)
	assert.Equal(t, http.StatusSeeOther, response.status)
	assert.Equal(t, auth.PathLogin, response.location)

	assert.Empty(t, site.cookies(browser), "the emptied session cookie is deleted")
	assert.Empty(t, site.meID(t, browser))
}

/*
TestHandler_GuestPagesRedirect sends signed-in visitors to their profile.
*/
func TestHandler_GuestPagesRedirect(t *testing.T) {
	site := newSite(t)
	browser := site.browser(t)
	site.post(t, browser, auth.PathRegister, registration("alice", "a@x.com", "pw123"))

	for _, path := range []string{auth.PathIndex, auth.PathLogin, auth.PathRegister} {
		t.Run("get"+path, func(t *testing.T) {
			response := site.get(t, browser, path)
			assert.Equal(t, http.StatusSeeOther, response.status)
			assert.Equal(t, auth.PathProfile, response.location)
		})
	}

	response := site.post(t, browser, auth.PathLogin, credentials("a@x.com", "wrong"))
	assert.Equal(t, http.StatusSeeOther, response.status)
	assert.Equal(t, auth.PathProfile, response.location)
}

func TestHandler_AnonymousPages(t *testing.T) {
	site := newSite(t)
	browser := site.browser(t)

	for _, path := range []string{auth.PathIndex, auth.PathLogin, auth.PathRegister} {
		response := site.get(t, browser, path)
		assert.Equal(t, http.StatusOK, response.status, path)
		assert.Contains(t, response.body, `href="/login"`, path)
	}
	assert.Empty(t, site.cookies(browser), "browsing anonymously sets no cookie")
}

func TestHandler_NotFound(t *testing.T) {
	site := newSite(t)

	response := site.get(t, site.browser(t), "/does-not-exist")

	assert.Equal(t, http.StatusNotFound, response.status)
	assert.Contains(t, response.body, "Page not found")
}

/*
TestHandler_CookieAttributes checks the session cookie issued on login.
*/
func TestHandler_CookieAttributes(t *testing.T) {
	site := newSite(t)
	client := site.browser(t)
	client.Jar = nil

	response, err := client.PostForm(site.server.URL+auth.PathRegister, registration("alice", "a@x.com", "pw123"))
	require.NoError(t, err)
	defer response.Body.Close()

	cookies := response.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.Equal(t, "/", cookies[0].Path)
}
