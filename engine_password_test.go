package clinauth

import (
	"context"
	"errors"
	"testing"
)

func TestChangePassword(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()

	pair := env.register(t, "alice@example.com", testPassword, "doctor")

	const newPassword = "Fresh-horse-9"
	if err := env.engine.ChangePassword(ctx, pair.AccessToken, testPassword, newPassword); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	// The change revokes every session.
	if _, err := env.engine.ValidateAccess(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("access token survived password change: %v", err)
	}
	if _, err := env.engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("refresh token survived password change: %v", err)
	}

	// Old credential dead, new one live.
	if _, err := env.engine.Login(ctx, "alice@example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := env.engine.Login(ctx, "alice@example.com", newPassword); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestChangePasswordRejections(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()

	pair := env.register(t, "alice@example.com", testPassword, "doctor")

	if err := env.engine.ChangePassword(ctx, pair.AccessToken, "Wrong-horse-7", "Fresh-horse-9"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current password: %v", err)
	}
	if err := env.engine.ChangePassword(ctx, pair.AccessToken, testPassword, "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("weak new password: %v", err)
	}
	if err := env.engine.ChangePassword(ctx, pair.AccessToken, testPassword, testPassword); !errors.Is(err, ErrPasswordReuse) {
		t.Fatalf("password reuse: %v", err)
	}
	if err := env.engine.ChangePassword(ctx, "junk", testPassword, "Fresh-horse-9"); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("bad access token: %v", err)
	}

	// Failed attempts leave the session intact.
	if _, err := env.engine.ValidateAccess(ctx, pair.AccessToken); err != nil {
		t.Fatalf("session lost after rejected change: %v", err)
	}
}
