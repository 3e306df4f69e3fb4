package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PlaceholderCredential produces the credential stored for a user at ledger
// initialization: a bcrypt hash of a per-user marker string.
//
// NOTE: login never compares against this value — any allow-listed username
// is accepted without a password. The stored hash exists only so the user
// record has the documented shape. Flagged rather than fixed; hardening
// login is explicitly out of scope.
func PlaceholderCredential(username string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed_"+username), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on oversized input; usernames are short.
		return fmt.Sprintf("hashed_%s", username)
	}
	return string(hash)
}
