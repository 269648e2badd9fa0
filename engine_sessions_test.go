package clinauth

import (
	"context"
	"errors"
	"testing"
)

func TestSessionsListing(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()

	ctx = WithClientIP(ctx, "203.0.113.9")
	ctx = WithUserAgent(ctx, "ward-tablet/2.1")

	pair := env.register(t, "alice@example.com", testPassword, "doctor")
	if _, err := env.engine.Login(ctx, "alice@example.com", testPassword); err != nil {
		t.Fatal(err)
	}

	sessions, err := env.engine.Sessions(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	var foundClientMeta bool
	for _, s := range sessions {
		if s.SessionID == "" || s.CreatedAt.IsZero() {
			t.Fatalf("incomplete session info %+v", s)
		}
		if s.IPAddress == "203.0.113.9" && s.UserAgent == "ward-tablet/2.1" {
			foundClientMeta = true
		}
	}
	if !foundClientMeta {
		t.Fatal("client metadata from context not recorded on the session")
	}
}

func TestRevokeSession(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()

	pair := env.register(t, "alice@example.com", testPassword, "doctor")
	other, err := env.engine.Login(ctx, "alice@example.com", testPassword)
	if err != nil {
		t.Fatal(err)
	}

	otherRes, err := env.engine.ValidateAccess(ctx, other.AccessToken)
	if err != nil {
		t.Fatal(err)
	}

	if err := env.engine.RevokeSession(ctx, pair.AccessToken, otherRes.SessionID); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if _, err := env.engine.ValidateAccess(ctx, other.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("revoked session still valid: %v", err)
	}

	// The revoker's own session is untouched.
	if _, err := env.engine.ValidateAccess(ctx, pair.AccessToken); err != nil {
		t.Fatalf("own session lost: %v", err)
	}

	// Revoking an unknown session is a no-op.
	if err := env.engine.RevokeSession(ctx, pair.AccessToken, "no-such-session"); err != nil {
		t.Fatalf("revoking unknown session: %v", err)
	}
}

func TestRevokeSessionIgnoresForeignSessions(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()

	alice := env.register(t, "alice@example.com", testPassword, "doctor")
	bob := env.register(t, "bob@example.com", testPassword, "nurse")

	bobRes, err := env.engine.ValidateAccess(ctx, bob.AccessToken)
	if err != nil {
		t.Fatal(err)
	}

	if err := env.engine.RevokeSession(ctx, alice.AccessToken, bobRes.SessionID); err != nil {
		t.Fatalf("cross-user revoke should be silent: %v", err)
	}
	if _, err := env.engine.ValidateAccess(ctx, bob.AccessToken); err != nil {
		t.Fatalf("foreign session was revoked: %v", err)
	}
}

func TestRevokeUserSessions(t *testing.T) {
	env := newTestEngine(t, nil)
	ctx := context.Background()

	pair := env.register(t, "alice@example.com", testPassword, "doctor")
	res, err := env.engine.ValidateAccess(ctx, pair.AccessToken)
	if err != nil {
		t.Fatal(err)
	}

	if err := env.engine.RevokeUserSessions(ctx, res.UserID); err != nil {
		t.Fatalf("RevokeUserSessions: %v", err)
	}
	if _, err := env.engine.ValidateAccess(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("session survived administrative revoke: %v", err)
	}

	// Unknown users are a no-op, not an error.
	if err := env.engine.RevokeUserSessions(ctx, "no-such-user"); err != nil {
		t.Fatalf("revoking unknown user: %v", err)
	}
}
