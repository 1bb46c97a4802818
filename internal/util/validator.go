package util

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidateEmail rejects empty or malformed addresses.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email")
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must have at least 8 characters")
	}
	return nil
}

// RequireString rejects blank values.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " is required")
	}
	return nil
}
