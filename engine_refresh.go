package clinauth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/caremesh/clinauth/session"
)

// Refresh rotates a refresh token: the presented token's session is consumed
// atomically and a new session with a fresh token pair replaces it. Of N
// concurrent calls with the same token exactly one succeeds; the rest get
// [ErrInvalidSession].
//
// A structurally valid token whose session is already gone is treated as
// replay of a rotated token. When Session.InvalidateOnReuse is set, every
// session of that user is revoked before the error is returned.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.VerifyRefresh(refreshToken)
	if err != nil {
		e.metrics.refresh(OutcomeDenied)
		e.emitAudit(ctx, AuditEvent{
			Action:  auditRefreshFailure,
			Outcome: OutcomeDenied,
			Error:   ErrInvalidRefreshToken.Error(),
		})
		return nil, ErrInvalidRefreshToken
	}

	old, err := e.sessions.Consume(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, e.handleRefreshReuse(ctx, claims.UserID, claims.SessionID)
		}
		e.metrics.refresh(OutcomeFailure)
		return nil, storeErr(err)
	}

	now := e.now()
	switch {
	case old.UserID != claims.UserID, old.TokenVersion != claims.TokenVersion:
		// The session the token names is not the session it was minted
		// against. Treat as replay.
		return nil, e.handleRefreshReuse(ctx, claims.UserID, claims.SessionID)
	case !old.Active, old.Expired(now):
		e.metrics.refresh(OutcomeDenied)
		e.emitAudit(ctx, AuditEvent{
			Action:    auditRefreshFailure,
			UserID:    claims.UserID,
			SessionID: claims.SessionID,
			Outcome:   OutcomeDenied,
			Error:     ErrInvalidSession.Error(),
		})
		return nil, ErrInvalidSession
	}

	user, err := e.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metrics.refresh(OutcomeDenied)
			return nil, ErrInvalidSession
		}
		e.metrics.refresh(OutcomeFailure)
		return nil, storeErr(err)
	}
	if !user.Active {
		e.metrics.refresh(OutcomeDenied)
		return nil, ErrAccountDisabled
	}
	if e.lockout.IsLocked(*user, now) {
		e.metrics.refresh(OutcomeDenied)
		return nil, ErrAccountLocked
	}

	// The replacement session opens a fresh window of the full configured
	// lifetime. The new refresh token carries the same lifetime, so token
	// validity and storage expiry stay in lockstep across rotations.
	next := &session.Session{
		ID:           uuid.NewString(),
		UserID:       old.UserID,
		Role:         user.Role,
		TokenVersion: old.TokenVersion + 1,
		IPAddress:    old.IPAddress,
		UserAgent:    old.UserAgent,
		Active:       true,
		CreatedAt:    old.CreatedAt,
		LastActivity: now.Unix(),
		ExpiresAt:    now.Add(e.cfg.Session.TTL).Unix(),
	}
	if ip := clientIPFromContext(ctx); ip != "" {
		next.IPAddress = ip
	}
	if ua := userAgentFromContext(ctx); ua != "" {
		next.UserAgent = ua
	}

	if err := e.sessions.Create(ctx, next, e.cfg.Session.TTL); err != nil {
		e.metrics.refresh(OutcomeFailure)
		return nil, storeErr(err)
	}
	e.metrics.sessionEvent("rotated")

	pair, err := e.issuePair(user, next)
	if err != nil {
		_ = e.sessions.Invalidate(ctx, next.ID)
		e.metrics.refresh(OutcomeFailure)
		return nil, err
	}

	e.metrics.refresh(OutcomeSuccess)
	e.emitAudit(ctx, AuditEvent{
		Action:    auditRefreshSuccess,
		UserID:    user.ID,
		SessionID: next.ID,
		Outcome:   OutcomeSuccess,
	})

	return pair, nil
}

// handleRefreshReuse runs when a verified refresh token points at a session
// that no longer exists or was minted for a different session state.
func (e *Engine) handleRefreshReuse(ctx context.Context, userID, sessionID string) error {
	e.metrics.refresh("reuse")
	e.emitAudit(ctx, AuditEvent{
		Action:    auditRefreshReuse,
		UserID:    userID,
		SessionID: sessionID,
		Outcome:   OutcomeDenied,
		Error:     ErrInvalidSession.Error(),
	})

	if e.cfg.Session.InvalidateOnReuse {
		if err := e.sessions.InvalidateAllForUser(ctx, userID); err != nil {
			return storeErr(err)
		}
		e.metrics.sessionEvent("revoked_all")
	}

	return ErrInvalidSession
}

// Logout invalidates the session behind a refresh token. It is idempotent
// and accepts expired tokens: the only requirement is an authentic
// signature, so a client can always log out.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.DecodeRefreshLenient(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}

	if err := e.sessions.Invalidate(ctx, claims.SessionID); err != nil &&
		!errors.Is(err, session.ErrNotFound) {
		return storeErr(err)
	}
	e.metrics.sessionEvent("invalidated")

	e.emitAudit(ctx, AuditEvent{
		Action:    auditLogout,
		UserID:    claims.UserID,
		SessionID: claims.SessionID,
		Outcome:   OutcomeSuccess,
	})

	return nil
}

// LogoutAll revokes every session of the authenticated user behind the
// given refresh token.
func (e *Engine) LogoutAll(ctx context.Context, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	claims, err := e.codec.DecodeRefreshLenient(refreshToken)
	if err != nil {
		return ErrInvalidRefreshToken
	}

	if err := e.sessions.InvalidateAllForUser(ctx, claims.UserID); err != nil {
		return storeErr(err)
	}
	e.metrics.sessionEvent("revoked_all")

	e.emitAudit(ctx, AuditEvent{
		Action:  auditLogoutAll,
		UserID:  claims.UserID,
		Outcome: OutcomeSuccess,
	})

	return nil
}
