package clinauth

import (
	"testing"

	"github.com/caremesh/clinauth/session"
)

func TestBuildRequiresCredentialStore(t *testing.T) {
	_, err := New().
		WithConfig(testEngineConfig()).
		WithSessionStore(session.NewMemoryStore()).
		Build()
	if err == nil || err.Error() != "credential store required" {
		t.Fatalf("Build() error = %v, want credential store required", err)
	}
}

func TestBuildRequiresSessionBackend(t *testing.T) {
	_, err := New().
		WithConfig(testEngineConfig()).
		WithCredentialStore(newMockCredentialStore()).
		Build()
	if err == nil || err.Error() != "redis client or session store required" {
		t.Fatalf("Build() error = %v, want session backend error", err)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Token.RefreshSecret = cfg.Token.AccessSecret

	_, err := New().
		WithConfig(cfg).
		WithCredentialStore(newMockCredentialStore()).
		WithSessionStore(session.NewMemoryStore()).
		Build()
	if err == nil {
		t.Fatal("Build() accepted identical signing secrets")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().
		WithConfig(testEngineConfig()).
		WithCredentialStore(newMockCredentialStore()).
		WithSessionStore(session.NewMemoryStore())

	eng, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(eng.Close)

	if _, err := b.Build(); err == nil || err.Error() != "builder already used" {
		t.Fatalf("second Build() error = %v, want builder already used", err)
	}
}

func TestBuildClonesConfigSecrets(t *testing.T) {
	cfg := testEngineConfig()
	secret := make([]byte, len(cfg.Token.AccessSecret))
	copy(secret, cfg.Token.AccessSecret)

	b := New().
		WithConfig(cfg).
		WithCredentialStore(newMockCredentialStore()).
		WithSessionStore(session.NewMemoryStore())

	// Mutating the caller's slice after WithConfig must not affect the
	// engine's signing key.
	for i := range cfg.Token.AccessSecret {
		cfg.Token.AccessSecret[i] = 0
	}

	eng, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(eng.Close)

	if string(eng.cfg.Token.AccessSecret) != string(secret) {
		t.Fatal("engine config shares the caller's secret slice")
	}
}

func TestBuildDefaultsRolesAndEndpoints(t *testing.T) {
	eng, err := New().
		WithConfig(testEngineConfig()).
		WithCredentialStore(newMockCredentialStore()).
		WithSessionStore(session.NewMemoryStore()).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(eng.Close)

	if !eng.resolver.KnownRole("doctor") {
		t.Fatal("default roles missing doctor")
	}
	if eng.resolver.KnownRole("janitor") {
		t.Fatal("resolver accepts unknown role")
	}
}

func TestBuildRejectsShortSecret(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Token.AccessSecret = []byte("short")

	_, err := New().
		WithConfig(cfg).
		WithCredentialStore(newMockCredentialStore()).
		WithSessionStore(session.NewMemoryStore()).
		Build()
	if err == nil {
		t.Fatal("Build() accepted a short signing secret")
	}
}
