package clinauth

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/caremesh/clinauth/password"
)

// Config groups every tunable of the engine. Zero values are not usable;
// start from [DefaultConfig] or [ConfigFromEnv] and override fields.
type Config struct {
	Token    TokenConfig
	Session  SessionConfig
	Lockout  LockoutConfig
	Password PasswordConfig
	Audit    AuditConfig
}

// TokenConfig controls JWT issuance and verification.
type TokenConfig struct {
	// AccessSecret and RefreshSecret are HS256 keys. Each must be at least
	// 32 bytes and they must differ from one another.
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// SessionConfig controls the Redis-backed session layer.
type SessionConfig struct {
	RedisPrefix string
	// TTL is the absolute session lifetime. It should match or exceed the
	// refresh token TTL so a live refresh token always has a live session.
	TTL time.Duration
	// SlidingActivity updates LastActivity on each successful access
	// validation without extending the absolute expiry.
	SlidingActivity bool
	// InvalidateOnReuse revokes every session of a user when a consumed
	// refresh token is presented again.
	InvalidateOnReuse bool
}

// LockoutConfig controls failed-login lockout.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// PasswordConfig controls hashing cost and the plaintext policy.
type PasswordConfig struct {
	Params password.Params
	Policy password.Policy
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// DefaultConfig returns production-leaning defaults. Secrets are NOT
// populated; the caller must set Token.AccessSecret and Token.RefreshSecret.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "clinauth",
			Leeway:     30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix:       "cs",
			TTL:               7 * 24 * time.Hour,
			SlidingActivity:   true,
			InvalidateOnReuse: true,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  30 * time.Minute,
		},
		Password: PasswordConfig{
			Params: password.DefaultParams(),
			Policy: password.DefaultPolicy(),
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

// Environment variable names read by [ConfigFromEnv].
const (
	EnvAccessSecret     = "CLINAUTH_ACCESS_TOKEN_SECRET"
	EnvRefreshSecret    = "CLINAUTH_REFRESH_TOKEN_SECRET"
	EnvAccessTTL        = "CLINAUTH_ACCESS_TOKEN_TTL"
	EnvRefreshTTL       = "CLINAUTH_REFRESH_TOKEN_TTL"
	EnvLockoutThreshold = "CLINAUTH_LOCKOUT_THRESHOLD"
	EnvLockoutDuration  = "CLINAUTH_LOCKOUT_DURATION"
)

// ConfigFromEnv starts from [DefaultConfig] and applies overrides from the
// CLINAUTH_* environment variables. TTL and duration variables accept either
// a bare integer (seconds) or a Go duration string like "15m".
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvAccessSecret); v != "" {
		cfg.Token.AccessSecret = []byte(v)
	}
	if v := os.Getenv(EnvRefreshSecret); v != "" {
		cfg.Token.RefreshSecret = []byte(v)
	}

	if v := os.Getenv(EnvAccessTTL); v != "" {
		d, err := parseEnvDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvAccessTTL, err)
		}
		cfg.Token.AccessTTL = d
	}
	if v := os.Getenv(EnvRefreshTTL); v != "" {
		d, err := parseEnvDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvRefreshTTL, err)
		}
		cfg.Token.RefreshTTL = d
		cfg.Session.TTL = d
	}
	if v := os.Getenv(EnvLockoutThreshold); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLockoutThreshold, err)
		}
		cfg.Lockout.Threshold = n
	}
	if v := os.Getenv(EnvLockoutDuration); v != "" {
		d, err := parseEnvDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvLockoutDuration, err)
		}
		cfg.Lockout.Duration = d
	}

	return cfg, nil
}

func parseEnvDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// Validate rejects configurations that would weaken the security posture.
func (c *Config) Validate() error {
	if len(c.Token.AccessSecret) < 32 {
		return errors.New("Token AccessSecret must be at least 32 bytes")
	}
	if len(c.Token.RefreshSecret) < 32 {
		return errors.New("Token RefreshSecret must be at least 32 bytes")
	}
	if string(c.Token.AccessSecret) == string(c.Token.RefreshSecret) {
		return errors.New("Token AccessSecret and RefreshSecret must differ")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("Token AccessTTL must be shorter than RefreshTTL")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}

	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TTL < c.Token.RefreshTTL {
		return errors.New("Session TTL must be at least the refresh token TTL")
	}

	if c.Lockout.Threshold < 1 {
		return errors.New("Lockout Threshold must be >= 1")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout Duration must be > 0")
	}

	if c.Password.Params.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Params.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Params.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.Params.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.Params.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.Policy.MinLength < 8 {
		return errors.New("Password Policy MinLength must be >= 8")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
