package password

import (
	"fmt"
	"unicode"
)

// Policy describes the strength requirements applied to candidate passwords
// before they are hashed.
type Policy struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPolicy returns the policy applied when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:    10,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

// Validate checks plain against the policy. The returned error names the
// first unmet requirement.
func (p Policy) Validate(plain string) error {
	if len(plain) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters", p.MinLength)
	}

	var upper, lower, digit, special bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	if p.RequireUpper && !upper {
		return fmt.Errorf("password must contain an uppercase letter")
	}
	if p.RequireLower && !lower {
		return fmt.Errorf("password must contain a lowercase letter")
	}
	if p.RequireDigit && !digit {
		return fmt.Errorf("password must contain a digit")
	}
	if p.RequireSpecial && !special {
		return fmt.Errorf("password must contain a special character")
	}

	return nil
}
