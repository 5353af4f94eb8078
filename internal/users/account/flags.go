// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

// # Flag Model

// Flags is a packed set of independent boolean user attributes.
//
// Each bit is toggled on its own; no two bits interact.
type Flags int32

const (
	// FlagAdmin marks an administrator account.
	FlagAdmin Flags = 1 << iota

	// FlagSuspended marks an account as suspended.
	FlagSuspended

	// FlagTwoFactorAuth marks that a second factor is enabled.
	FlagTwoFactorAuth

	// FlagEmailVerified marks that the email address was confirmed.
	FlagEmailVerified
)

// flagNames lists the known bits in display order.
var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagAdmin, "admin"},
	{FlagSuspended, "suspended"},
	{FlagTwoFactorAuth, "two_factor_auth"},
	{FlagEmailVerified, "email_verified"},
}

// Has reports whether all bits of bit are set. Compound masks are allowed.
func (flags Flags) Has(bit Flags) bool {
	return flags&bit == bit
}

// Set returns flags with bit turned on.
func (flags Flags) Set(bit Flags) Flags {
	return flags | bit
}

// Unset returns flags with bit turned off.
func (flags Flags) Unset(bit Flags) Flags {
	return flags &^ bit
}

// Names returns the names of the known bits that are set, in a stable order.
func (flags Flags) Names() []string {
	names := make([]string, 0, len(flagNames))
	for _, entry := range flagNames {
		if flags.Has(entry.flag) {
			names = append(names, entry.name)
		}
	}
	return names
}
