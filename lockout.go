package clinauth

import "time"

// LockoutPolicy is the pure account-lockout rule set: no I/O, deterministic,
// exercised independently of any store. The engine persists the resulting
// counter and timestamp through [CredentialStore.UpdateLockState].
type LockoutPolicy struct {
	// Threshold is the number of consecutive failures that opens the
	// lockout window.
	Threshold int
	// Duration is the length of the lockout window.
	Duration time.Duration
}

// RecordFailure returns a copy of u with the failure counter incremented.
// When the counter reaches the threshold the lockout window opens at now.
func (p LockoutPolicy) RecordFailure(u User, now time.Time) User {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= p.Threshold {
		until := now.Add(p.Duration)
		u.LockedUntil = &until
	}
	return u
}

// RecordSuccess returns a copy of u with the counter zeroed and the lockout
// cleared.
func (p LockoutPolicy) RecordSuccess(u User) User {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	return u
}

// IsLocked reports whether the lockout window is still open at now. A
// window that has elapsed reads as unlocked; the stale timestamp is cleared
// on the next successful login.
func (p LockoutPolicy) IsLocked(u User, now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
