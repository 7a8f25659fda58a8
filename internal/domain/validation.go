package domain

import (
	"fmt"
	"unicode"
)

// PasswordRequirements describes the accepted password shape.
type PasswordRequirements struct {
	MinLength          int
	MaxLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
}

// DefaultPasswordRequirements returns the policy enforced on registration
// and password changes.
func DefaultPasswordRequirements() PasswordRequirements {
	return PasswordRequirements{
		MinLength:          8,
		MaxLength:          255,
		RequireUppercase:   true,
		RequireLowercase:   true,
		RequireDigit:       true,
		RequireSpecialChar: true,
	}
}

// ValidatePassword checks a candidate password against the requirements.
func ValidatePassword(password string, req PasswordRequirements) error {
	if len(password) < req.MinLength {
		return fmt.Errorf("password must be at least %d characters long", req.MinLength)
	}
	if len(password) > req.MaxLength {
		return fmt.Errorf("password must be at most %d characters long", req.MaxLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		case !unicode.IsLetter(c) && !unicode.IsSpace(c):
			hasSpecial = true
		}
	}

	if req.RequireUppercase && !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if req.RequireLowercase && !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if req.RequireDigit && !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}
	if req.RequireSpecialChar && !hasSpecial {
		return fmt.Errorf("password must contain at least one special character")
	}
	return nil
}
