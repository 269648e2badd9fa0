package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned by Verify methods when the token's expiry has
	// passed but the structure and signature were otherwise valid.
	ErrExpired = errors.New("token expired")
	// ErrMalformed is returned when structure, signature, or claim-schema
	// checks fail.
	ErrMalformed = errors.New("token malformed")
)

// MinSecretLen is the minimum accepted signing-secret length in bytes.
const MinSecretLen = 32

// Config holds codec configuration. AccessSecret and RefreshSecret must be
// distinct and at least [MinSecretLen] bytes each.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// AccessClaims is the closed claims schema of an access token.
type AccessClaims struct {
	UserID      string   `json:"uid"`
	Role        string   `json:"role"`
	SessionID   string   `json:"sid"`
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the closed claims schema of a refresh token. TokenVersion
// mirrors the version stored on the session record; a mismatch on refresh is
// treated as replay.
type RefreshClaims struct {
	UserID       string `json:"uid"`
	SessionID    string `json:"sid"`
	TokenVersion uint32 `json:"ver"`
	jwt.RegisteredClaims
}

// Codec issues and verifies access and refresh tokens.
type Codec struct {
	cfg Config
	now func() time.Time
}

// NewCodec validates cfg and returns a [Codec].
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) < MinSecretLen {
		return nil, fmt.Errorf("access secret must be at least %d bytes", MinSecretLen)
	}
	if len(cfg.RefreshSecret) < MinSecretLen {
		return nil, fmt.Errorf("refresh secret must be at least %d bytes", MinSecretLen)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Codec{cfg: cfg, now: time.Now}, nil
}

// SetClock overrides the codec's time source. Intended for tests.
func (c *Codec) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// IssueAccess signs an access token for the given identity and permissions.
func (c *Codec) IssueAccess(userID, role, sessionID string, permissions []string) (string, error) {
	now := c.now()
	claims := AccessClaims{
		UserID:      userID,
		Role:        role,
		SessionID:   sessionID,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.AccessTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.AccessSecret)
}

// IssueRefresh signs a refresh token bound to the given session.
func (c *Codec) IssueRefresh(userID, sessionID string, tokenVersion uint32) (string, error) {
	now := c.now()
	claims := RefreshClaims{
		UserID:       userID,
		SessionID:    sessionID,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.RefreshTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.RefreshSecret)
}

// VerifyAccess parses and validates an access token.
func (c *Codec) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.verify(tokenStr, claims, c.cfg.AccessSecret, true); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.SessionID == "" || claims.Role == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token.
func (c *Codec) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.verify(tokenStr, claims, c.cfg.RefreshSecret, true); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

// DecodeRefreshLenient parses a refresh token, accepting an expired one as
// long as the signature and claim schema check out. Used by logout, which
// must be able to invalidate the session behind a token that has already
// aged out.
func (c *Codec) DecodeRefreshLenient(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.verify(tokenStr, claims, c.cfg.RefreshSecret, false); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

func (c *Codec) verify(tokenStr string, claims jwt.Claims, secret []byte, checkExpiry bool) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if c.cfg.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.cfg.Leeway))
	}
	if c.cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.cfg.Issuer))
	}
	if !checkExpiry {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !tok.Valid {
		return ErrMalformed
	}

	return nil
}
