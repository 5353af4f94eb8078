// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Credential Constraints

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 5

	// MaxUsernameLength bounds the display name, in characters.
	MaxUsernameLength = 64

	// MaxEmailLength is the RFC 5321 path limit.
	MaxEmailLength = 254
)

// # Routes & Redirect Targets

const (
	PathIndex    = "/"
	PathLogin    = "/login"
	PathRegister = "/register"
	PathProfile  = "/profile"
	PathLogout   = "/logout"
	PathMe       = "/api/v1/me"

	redirectInvalidCredentials = PathLogin + "?error=invalid_credentials"
	redirectEmailTaken         = PathRegister + "?error=email_taken"
	redirectInvalidInput       = PathRegister + "?error=invalid_input"
	redirectLoggedOut          = PathLogin + "?logout=1"
)

// # Form Fields

const (
	formUsername = "username"
	formEmail    = "email"
	formPassword = "password"
)

// maxFormBytes caps the body of the login and registration forms.
const maxFormBytes = 16 << 10
