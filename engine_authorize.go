package clinauth

import (
	"context"
	"errors"
	"time"

	"github.com/caremesh/clinauth/rbac"
	"github.com/caremesh/clinauth/session"
)

// ValidateAccess verifies an access token and confirms its session is still
// live. Expired, tampered, or orphaned tokens return
// [ErrInvalidAccessToken]; a session-store outage returns
// [ErrStoreUnavailable] instead, so callers can distinguish "denied" from
// "cannot answer".
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil || e.sessions == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.VerifyAccess(accessToken)
	if err != nil {
		e.rejectAccessToken(ctx, "", "", err)
		return nil, ErrInvalidAccessToken
	}

	sess, err := e.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			e.rejectAccessToken(ctx, claims.UserID, claims.SessionID, err)
			return nil, ErrInvalidAccessToken
		}
		return nil, storeErr(err)
	}

	now := e.now()
	if !sess.Active || sess.Expired(now) || sess.UserID != claims.UserID {
		e.rejectAccessToken(ctx, claims.UserID, claims.SessionID, ErrInvalidSession)
		return nil, ErrInvalidAccessToken
	}

	if e.cfg.Session.SlidingActivity {
		// Best effort; a failed touch never fails the validation.
		_ = e.sessions.Touch(ctx, sess.ID, now, time.Unix(sess.ExpiresAt, 0).Sub(now))
	}

	return &AuthResult{
		UserID:      claims.UserID,
		Role:        claims.Role,
		SessionID:   claims.SessionID,
		Permissions: claims.Permissions,
	}, nil
}

// Authorize validates the access token and then evaluates a single
// resource/action permission check. A denial is reported in the Decision,
// not as an error; errors mean the check could not be evaluated.
func (e *Engine) Authorize(ctx context.Context, accessToken, resource, action string, actx *rbac.AccessContext) (*Decision, error) {
	res, err := e.ValidateAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return e.AuthorizeIdentity(ctx, res, resource, action, actx), nil
}

// AuthorizeIdentity evaluates a permission check for an already validated
// identity. Middleware uses it to avoid re-validating the token per check.
func (e *Engine) AuthorizeIdentity(ctx context.Context, res *AuthResult, resource, action string, actx *rbac.AccessContext) *Decision {
	allowed := e.resolver.HasPermission(res.UserID, res.Role, resource, action, actx)

	d := &Decision{
		Allowed:  allowed,
		UserID:   res.UserID,
		Role:     res.Role,
		Resource: resource,
		Action:   action,
	}

	e.recordDecision(ctx, res, d)
	return d
}

// AuthorizeEndpoint validates the access token and evaluates the HTTP
// method/path pair against the endpoint permission table. Endpoints absent
// from the table are denied.
func (e *Engine) AuthorizeEndpoint(ctx context.Context, accessToken, method, path string, actx *rbac.AccessContext) (*Decision, error) {
	res, err := e.ValidateAccess(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	d := &Decision{
		UserID:   res.UserID,
		Role:     res.Role,
		Resource: path,
		Action:   method,
	}
	if perm, ok := e.resolver.RequiredPermission(method, path); ok {
		if action, resource, ok := rbac.SplitPermission(perm); ok {
			d.Resource = resource
			d.Action = action
		}
		d.Allowed = e.resolver.CanAccessEndpoint(res.UserID, res.Role, method, path, actx)
	}

	e.recordDecision(ctx, res, d)
	return d, nil
}

// rejectAccessToken puts a failed token validation on the audit timeline.
// UserID and SessionID come from the token's claims and are present only
// when the token at least carried a verifiable signature.
func (e *Engine) rejectAccessToken(ctx context.Context, userID, sessionID string, cause error) {
	e.emitAudit(ctx, AuditEvent{
		Action:    auditTokenInvalid,
		UserID:    userID,
		SessionID: sessionID,
		Outcome:   OutcomeDenied,
		Error:     cause.Error(),
	})
}

func (e *Engine) recordDecision(ctx context.Context, res *AuthResult, d *Decision) {
	outcome := OutcomeDenied
	action := auditAuthzDenied
	if d.Allowed {
		outcome = OutcomeSuccess
		action = auditAuthzAllowed
	}

	e.metrics.authz(res.Role, outcome)
	e.emitAudit(ctx, AuditEvent{
		Action:    action,
		UserID:    res.UserID,
		SessionID: res.SessionID,
		Resource:  d.Action + ":" + d.Resource,
		Outcome:   outcome,
	})
}
