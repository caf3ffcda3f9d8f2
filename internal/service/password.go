package service

import (
	"fmt"
	"unicode"
)

const minPasswordLength = 8

// ValidatePassword enforces the complexity policy: minimum length plus
// at least one uppercase, lowercase, digit and symbol character.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: shorter than %d characters", ErrWeakPassword, minPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return fmt.Errorf("%w: missing uppercase letter", ErrWeakPassword)
	case !hasLower:
		return fmt.Errorf("%w: missing lowercase letter", ErrWeakPassword)
	case !hasDigit:
		return fmt.Errorf("%w: missing digit", ErrWeakPassword)
	case !hasSymbol:
		return fmt.Errorf("%w: missing symbol", ErrWeakPassword)
	}
	return nil
}
