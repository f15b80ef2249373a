package password

import (
	"errors"
	"strings"
)

// Policy configures which rules Validate enforces.
type Policy struct {
	MinLength            int
	MaxLength            int
	RequireUppercase     bool
	RequireLowercase     bool
	RequireDigit         bool
	RequireSpecial       bool
	ForbiddenSubstrings  []string
	MaxConsecutiveRepeat int
}

var defaultForbidden = []string{"password", "123456", "admin", "user", "root", "guest"}

// DefaultPolicy returns the policy applied to account passwords.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:            8,
		MaxLength:            32,
		RequireUppercase:     true,
		RequireLowercase:     true,
		RequireDigit:         true,
		RequireSpecial:       true,
		ForbiddenSubstrings:  append([]string(nil), defaultForbidden...),
		MaxConsecutiveRepeat: 3,
	}
}

// Validate rejects policies that no password could satisfy.
func (p Policy) Validate() error {
	if p.MinLength < 1 {
		return errors.New("password policy min length must be >= 1")
	}
	if p.MaxLength < p.MinLength {
		return errors.New("password policy max length must be >= min length")
	}
	if p.MaxConsecutiveRepeat < 1 {
		return errors.New("password policy max consecutive repeat must be >= 1")
	}
	if p.requiredCategories() > p.MaxLength {
		return errors.New("password policy requires more categories than max length allows")
	}
	for _, w := range p.ForbiddenSubstrings {
		if strings.TrimSpace(w) == "" {
			return errors.New("password policy forbidden substrings must not be blank")
		}
	}
	return nil
}

func (p Policy) requiredCategories() int {
	n := 0
	for _, req := range []bool{p.RequireUppercase, p.RequireLowercase, p.RequireDigit, p.RequireSpecial} {
		if req {
			n++
		}
	}
	return n
}
