package clinauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/caremesh/clinauth/password"
	"github.com/caremesh/clinauth/rbac"
	"github.com/caremesh/clinauth/session"
	"github.com/caremesh/clinauth/token"
)

// Engine is the authentication and access-control core. Build one with
// [New]; a built Engine is immutable and safe for concurrent use.
type Engine struct {
	cfg      Config
	codec    *token.Codec
	sessions session.Store
	users    CredentialStore
	hasher   *password.Hasher
	policy   password.Policy
	lockout  LockoutPolicy
	resolver *rbac.Resolver
	audit    *auditDispatcher
	metrics  *Metrics

	// decoyHash is verified against on logins for unknown emails so that
	// the miss path costs the same as a real password check.
	decoyHash string

	now func() time.Time
}

// Close drains the audit pipeline. Call it on shutdown.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.close()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.droppedCount()
}

// Login verifies credentials for email and issues a fresh token pair bound
// to a new session. Unknown email and wrong password both return
// [ErrInvalidCredentials]; a locked account returns [ErrAccountLocked]
// without evaluating the password.
func (e *Engine) Login(ctx context.Context, email, plainPassword string) (*TokenPair, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	now := e.now()

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Equalize timing with the known-user path before refusing.
			_, _ = e.hasher.Verify(plainPassword, e.decoyHash)
			e.metrics.login(OutcomeDenied)
			e.emitAudit(ctx, AuditEvent{
				Action:  auditLoginFailure,
				Outcome: OutcomeDenied,
				Error:   ErrInvalidCredentials.Error(),
			})
			return nil, ErrInvalidCredentials
		}
		e.metrics.login(OutcomeFailure)
		return nil, storeErr(err)
	}

	if e.lockout.IsLocked(*user, now) {
		e.metrics.login(OutcomeDenied)
		e.emitAudit(ctx, AuditEvent{
			Action:  auditLoginLocked,
			UserID:  user.ID,
			Outcome: OutcomeDenied,
			Error:   ErrAccountLocked.Error(),
		})
		return nil, ErrAccountLocked
	}

	if !user.Active {
		e.metrics.login(OutcomeDenied)
		e.emitAudit(ctx, AuditEvent{
			Action:  auditLoginFailure,
			UserID:  user.ID,
			Outcome: OutcomeDenied,
			Error:   ErrAccountDisabled.Error(),
		})
		return nil, ErrAccountDisabled
	}

	ok, err := e.hasher.Verify(plainPassword, user.PasswordHash)
	if err != nil {
		e.metrics.login(OutcomeFailure)
		return nil, err
	}
	if !ok {
		updated := e.lockout.RecordFailure(*user, now)
		if err := e.users.UpdateLockState(ctx, user.ID, updated.FailedLoginAttempts, updated.LockedUntil); err != nil {
			e.metrics.login(OutcomeFailure)
			return nil, storeErr(err)
		}
		e.metrics.login(OutcomeDenied)
		e.emitAudit(ctx, AuditEvent{
			Action:  auditLoginFailure,
			UserID:  user.ID,
			Outcome: OutcomeDenied,
			Error:   ErrInvalidCredentials.Error(),
		})
		return nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		cleared := e.lockout.RecordSuccess(*user)
		if err := e.users.UpdateLockState(ctx, user.ID, cleared.FailedLoginAttempts, cleared.LockedUntil); err != nil {
			e.metrics.login(OutcomeFailure)
			return nil, storeErr(err)
		}
	}

	if upgrade, _ := e.hasher.NeedsRehash(user.PasswordHash); upgrade {
		if rehashed, err := e.hasher.Hash(plainPassword); err == nil {
			_ = e.users.UpdatePasswordHash(ctx, user.ID, rehashed)
		}
	}

	pair, sess, err := e.startSession(ctx, user)
	if err != nil {
		e.metrics.login(OutcomeFailure)
		return nil, err
	}

	e.metrics.login(OutcomeSuccess)
	e.emitAudit(ctx, AuditEvent{
		Action:    auditLoginSuccess,
		UserID:    user.ID,
		SessionID: sess.ID,
		Outcome:   OutcomeSuccess,
	})

	return pair, nil
}

// startSession creates a session record for user and issues the token pair
// bound to it. Client IP and user agent are taken from the context when the
// caller attached them with [WithClientIP] and [WithUserAgent].
func (e *Engine) startSession(ctx context.Context, user *User) (*TokenPair, *session.Session, error) {
	now := e.now()

	sess := &session.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: 1,
		IPAddress:    clientIPFromContext(ctx),
		UserAgent:    userAgentFromContext(ctx),
		Active:       true,
		CreatedAt:    now.Unix(),
		LastActivity: now.Unix(),
		ExpiresAt:    now.Add(e.cfg.Session.TTL).Unix(),
	}

	if err := e.sessions.Create(ctx, sess, e.cfg.Session.TTL); err != nil {
		return nil, nil, storeErr(err)
	}
	e.metrics.sessionEvent("created")

	pair, err := e.issuePair(user, sess)
	if err != nil {
		_ = e.sessions.Invalidate(ctx, sess.ID)
		return nil, nil, err
	}

	return pair, sess, nil
}

func (e *Engine) issuePair(user *User, sess *session.Session) (*TokenPair, error) {
	access, err := e.codec.IssueAccess(user.ID, user.Role, sess.ID, e.resolver.Permissions(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := e.codec.IssueRefresh(user.ID, sess.ID, sess.TokenVersion)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.now().UTC()
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	e.audit.record(ctx, event)
}

// storeErr maps session and credential store faults onto
// [ErrStoreUnavailable] while keeping the underlying detail wrapped.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, session.ErrNotFound) {
		return err
	}
	return errors.Join(ErrStoreUnavailable, err)
}
