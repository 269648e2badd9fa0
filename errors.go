package clinauth

import "errors"

var (
	// ErrInvalidEmail rejects a malformed email address at registration.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword rejects a password that fails the configured strength
	// policy. The wrapped detail names the unmet requirement.
	ErrWeakPassword = errors.New("password does not meet policy")
	// ErrInvalidRole rejects a role outside the resolver's closed role set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrUserExists signals a registration against an email that is already
	// taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned by credential stores when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// the two cases are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is returned while the lockout window is open.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountDisabled is returned for deactivated accounts.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrInvalidRefreshToken is returned when a refresh token fails
	// verification.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrInvalidSession is returned when a refresh token's session is gone
	// or inactive — including when it lost a concurrent rotation race.
	ErrInvalidSession = errors.New("invalid session")
	// ErrInvalidAccessToken is returned when an access token fails
	// verification.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrStoreUnavailable is a service fault, distinct from every auth
	// decision; callers retry with backoff and must never read it as deny.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrPasswordReuse rejects a password change to the current password.
	ErrPasswordReuse = errors.New("new password must differ from current password")
	// ErrSessionRevokeFailed reports that a credential change landed but the
	// user's sessions could not all be invalidated.
	ErrSessionRevokeFailed = errors.New("session revocation failed")
	// ErrEngineNotReady guards calls on a partially constructed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
