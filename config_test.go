package clinauth

import (
	"strings"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessSecret = []byte(strings.Repeat("a", 32))
	cfg.Token.RefreshSecret = []byte(strings.Repeat("b", 32))
	return cfg
}

func TestDefaultConfigValidatesOnceSecretsAreSet(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Token.AccessTTL != 15*time.Minute {
		t.Fatalf("access TTL default = %v", cfg.Token.AccessTTL)
	}
	if cfg.Token.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("refresh TTL default = %v", cfg.Token.RefreshTTL)
	}
	if cfg.Lockout.Threshold != 5 || cfg.Lockout.Duration != 30*time.Minute {
		t.Fatalf("lockout defaults = %+v", cfg.Lockout)
	}
	if !cfg.Session.InvalidateOnReuse {
		t.Fatal("reuse hardening must default on")
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secrets", func(c *Config) { c.Token.AccessSecret = nil }},
		{"short access secret", func(c *Config) { c.Token.AccessSecret = []byte("short") }},
		{"short refresh secret", func(c *Config) { c.Token.RefreshSecret = []byte("short") }},
		{"shared secret", func(c *Config) { c.Token.RefreshSecret = c.Token.AccessSecret }},
		{"access TTL above refresh TTL", func(c *Config) { c.Token.AccessTTL = 8 * 24 * time.Hour }},
		{"session shorter than refresh", func(c *Config) { c.Session.TTL = time.Hour }},
		{"zero lockout threshold", func(c *Config) { c.Lockout.Threshold = 0 }},
		{"zero lockout duration", func(c *Config) { c.Lockout.Duration = 0 }},
		{"weak argon2 memory", func(c *Config) { c.Password.Params.Memory = 1024 }},
		{"tiny password minimum", func(c *Config) { c.Password.Policy.MinLength = 4 }},
		{"audit without buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validTestConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvAccessSecret, strings.Repeat("a", 32))
	t.Setenv(EnvRefreshSecret, strings.Repeat("b", 32))
	t.Setenv(EnvAccessTTL, "900")
	t.Setenv(EnvRefreshTTL, "72h")
	t.Setenv(EnvLockoutThreshold, "3")
	t.Setenv(EnvLockoutDuration, "1800")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Token.AccessTTL != 15*time.Minute {
		t.Fatalf("access TTL = %v", cfg.Token.AccessTTL)
	}
	if cfg.Token.RefreshTTL != 72*time.Hour {
		t.Fatalf("refresh TTL = %v", cfg.Token.RefreshTTL)
	}
	if cfg.Session.TTL != 72*time.Hour {
		t.Fatal("session TTL must follow the refresh TTL override")
	}
	if cfg.Lockout.Threshold != 3 {
		t.Fatalf("lockout threshold = %d", cfg.Lockout.Threshold)
	}
	if cfg.Lockout.Duration != 30*time.Minute {
		t.Fatalf("lockout duration = %v", cfg.Lockout.Duration)
	}
}

func TestConfigFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv(EnvAccessTTL, "soon")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected parse error")
	}
}
