package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a session does not exist or its TTL has
	// expired. Callers must treat this as "session invalid", never as a
	// retryable fault.
	ErrNotFound = errors.New("session not found")
	// ErrUnavailable is returned when the backing store cannot be reached.
	// It is distinct from ErrNotFound so callers never mistake an outage
	// for a revoked session.
	ErrUnavailable = errors.New("session store unavailable")
)

// Store persists sessions with a per-key time-to-live.
//
// Implementations must serialize conflicting writes themselves; the caller
// never coordinates. All methods respect ctx cancellation and deadlines.
type Store interface {
	// Create persists a new session under its ID with the given TTL.
	Create(ctx context.Context, sess *Session, ttl time.Duration) error

	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Touch updates LastActivity and refreshes the TTL.
	Touch(ctx context.Context, sessionID string, at time.Time, ttl time.Duration) error

	// Consume atomically fetches and invalidates the session. Exactly one
	// of any set of concurrent callers receives the record; the rest get
	// ErrNotFound. This is the compare-and-invalidate step behind refresh
	// rotation.
	Consume(ctx context.Context, sessionID string) (*Session, error)

	// Invalidate removes the session. Removing a missing session is not an
	// error.
	Invalidate(ctx context.Context, sessionID string) error

	// InvalidateAllForUser removes every session belonging to the user.
	InvalidateAllForUser(ctx context.Context, userID string) error

	// SessionIDsForUser returns the IDs of the user's live sessions.
	SessionIDsForUser(ctx context.Context, userID string) ([]string, error)
}
