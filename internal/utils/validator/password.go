package validator

import (
	"fmt"
	"unicode/utf8"
)

type ShortPasswordError struct {
	Min int
}

func (e *ShortPasswordError) Error() string {
	return fmt.Sprintf("password must be at least %d characters long", e.Min)
}

// ValidatePassword enforces the provider's only password rule: a minimum length.
func ValidatePassword(password string, min int) error {
	if utf8.RuneCountInString(password) < min {
		return &ShortPasswordError{Min: min}
	}
	return nil
}
