package clinauth

import (
	"context"
	"time"
)

// User is the credential-store record referenced by the engine. The store
// owns persistence; the engine owns the lockout bookkeeping rules applied to
// FailedLoginAttempts and LockedUntil.
type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	Role                string
	FailedLoginAttempts int
	LockedUntil         *time.Time
	Active              bool
}

// CredentialStore is the narrow persistence interface the engine consumes
// for user records. Implementations must return [ErrUserNotFound] for
// missing users and [ErrUserExists] for duplicate emails; emails are stored
// and matched case-insensitively.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateLockState(ctx context.Context, id string, failedAttempts int, lockedUntil *time.Time) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// TokenPair is the result of registration, login, and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is the verified identity behind an access token.
type AuthResult struct {
	UserID      string
	Role        string
	SessionID   string
	Permissions []string
}

// Decision is an authorization outcome. A denial is a normal result, not an
// error.
type Decision struct {
	Allowed  bool
	UserID   string
	Role     string
	Resource string
	Action   string
}

// SessionInfo is a read-only view of one live session, for account-security
// surfaces.
type SessionInfo struct {
	SessionID    string
	CreatedAt    time.Time
	LastActivity time.Time
	IPAddress    string
	UserAgent    string
}
