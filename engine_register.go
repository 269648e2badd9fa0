package clinauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Register creates a new account and logs it straight in, returning the
// first token pair. The email must be well formed and unused, the password
// must satisfy the configured policy, and the role must exist in the
// resolver's role set.
func (e *Engine) Register(ctx context.Context, email, plainPassword, role string) (*TokenPair, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if !validEmail(email) {
		e.metrics.registration(OutcomeDenied)
		return nil, ErrInvalidEmail
	}

	if err := e.policy.Validate(plainPassword); err != nil {
		e.metrics.registration(OutcomeDenied)
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	if !e.resolver.KnownRole(role) {
		e.metrics.registration(OutcomeDenied)
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	hash, err := e.hasher.Hash(plainPassword)
	if err != nil {
		e.metrics.registration(OutcomeFailure)
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}

	if err := e.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			e.metrics.registration(OutcomeDenied)
			e.emitAudit(ctx, AuditEvent{
				Action:  auditRegisterFailure,
				Outcome: OutcomeDenied,
				Error:   ErrUserExists.Error(),
			})
			return nil, ErrUserExists
		}
		e.metrics.registration(OutcomeFailure)
		return nil, storeErr(err)
	}

	pair, sess, err := e.startSession(ctx, user)
	if err != nil {
		e.metrics.registration(OutcomeFailure)
		return nil, err
	}

	e.metrics.registration(OutcomeSuccess)
	e.emitAudit(ctx, AuditEvent{
		Action:    auditRegisterSuccess,
		UserID:    user.ID,
		SessionID: sess.ID,
		Outcome:   OutcomeSuccess,
	})

	return pair, nil
}
