package clinauth

import (
	"net/mail"
	"strings"
)

// normalizeEmail lower-cases and trims an email address; emails are unique
// case-insensitively.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	// mail.ParseAddress accepts local-only addresses; require a dot-bearing
	// domain.
	at := strings.LastIndexByte(email, '@')
	if at < 0 || !strings.Contains(email[at+1:], ".") {
		return false
	}
	return true
}
