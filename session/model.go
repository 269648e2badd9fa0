package session

import "time"

// Session binds a refresh token's identity to revocable server-side state.
// A session is the live counterpart of exactly one outstanding refresh
// token; rotation consumes it and creates a successor with TokenVersion+1.
type Session struct {
	ID           string
	UserID       string
	Role         string
	TokenVersion uint32
	IPAddress    string
	UserAgent    string
	Active       bool

	CreatedAt    int64
	LastActivity int64
	ExpiresAt    int64
}

// Expired reports whether the session's absolute expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	return now.Unix() > s.ExpiresAt
}
