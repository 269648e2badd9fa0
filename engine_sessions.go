package clinauth

import (
	"context"
	"errors"
	"time"

	"github.com/caremesh/clinauth/session"
)

// Sessions lists the live sessions of the user behind the access token,
// for "active devices" account-security pages.
func (e *Engine) Sessions(ctx context.Context, accessToken string) ([]SessionInfo, error) {
	res, err := e.ValidateAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	ids, err := e.sessions.SessionIDsForUser(ctx, res.UserID)
	if err != nil {
		return nil, storeErr(err)
	}

	out := make([]SessionInfo, 0, len(ids))
	for _, id := range ids {
		sess, err := e.sessions.Get(ctx, id)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				continue
			}
			return nil, storeErr(err)
		}
		if !sess.Active {
			continue
		}
		out = append(out, SessionInfo{
			SessionID:    sess.ID,
			CreatedAt:    time.Unix(sess.CreatedAt, 0).UTC(),
			LastActivity: time.Unix(sess.LastActivity, 0).UTC(),
			IPAddress:    sess.IPAddress,
			UserAgent:    sess.UserAgent,
		})
	}

	return out, nil
}

// RevokeSession invalidates one named session of the authenticated user.
// Revoking a session that is already gone is not an error.
func (e *Engine) RevokeSession(ctx context.Context, accessToken, sessionID string) error {
	res, err := e.ValidateAccess(ctx, accessToken)
	if err != nil {
		return err
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil
		}
		return storeErr(err)
	}
	if sess.UserID != res.UserID {
		// Do not reveal whether a foreign session ID exists.
		return nil
	}

	if err := e.sessions.Invalidate(ctx, sessionID); err != nil &&
		!errors.Is(err, session.ErrNotFound) {
		return storeErr(err)
	}
	e.metrics.sessionEvent("invalidated")

	return nil
}

// RevokeUserSessions force-revokes every session of a target user. This is
// an administrative surface: the engine does not gate it on a token, so the
// host application must authorize the caller first.
func (e *Engine) RevokeUserSessions(ctx context.Context, userID string) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	if err := e.sessions.InvalidateAllForUser(ctx, userID); err != nil {
		return storeErr(err)
	}
	e.metrics.sessionEvent("revoked_all")

	e.emitAudit(ctx, AuditEvent{
		Action:  auditLogoutAll,
		UserID:  userID,
		Outcome: OutcomeSuccess,
	})

	return nil
}
