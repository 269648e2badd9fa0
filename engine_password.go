package clinauth

import (
	"context"
	"errors"
	"fmt"
)

// ChangePassword verifies the current password for the authenticated user
// and replaces it. On success every session of the user is revoked; clients
// must log in again with the new credential.
func (e *Engine) ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	res, err := e.ValidateAccess(ctx, accessToken)
	if err != nil {
		return err
	}

	if err := e.policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	user, err := e.users.FindByID(ctx, res.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidAccessToken
		}
		return storeErr(err)
	}

	ok, err := e.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		e.emitAudit(ctx, AuditEvent{
			Action:  auditPasswordChange,
			UserID:  user.ID,
			Outcome: OutcomeDenied,
			Error:   ErrInvalidCredentials.Error(),
		})
		return ErrInvalidCredentials
	}

	if newPassword == currentPassword {
		return ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := e.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return storeErr(err)
	}

	// The credential changed; outstanding tokens must not outlive it.
	if err := e.sessions.InvalidateAllForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionRevokeFailed, err)
	}
	e.metrics.sessionEvent("revoked_all")

	e.emitAudit(ctx, AuditEvent{
		Action:  auditPasswordChange,
		UserID:  user.ID,
		Outcome: OutcomeSuccess,
	})

	return nil
}
