package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/renchester/blog-api/pkg/errors"
)

const (
	minUsernameLength = 6
	maxUsernameLength = 30
	maxEmailLength    = 1024
	minPasswordLength = 6
	maxPasswordLength = 1024
)

// ValidationError lists every field that failed. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range []string{"username", "email", "password", "first_name", "last_name"} {
		if msg, ok := e.Fields[field]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == pkgerrors.ErrValidation
}

type validator struct {
	fields map[string]string
}

func (v *validator) fail(field, msg string) {
	if v.fields == nil {
		v.fields = make(map[string]string)
	}
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

func (v *validator) username(username string) {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		v.fail("username", fmt.Sprintf("Username must be between %d and %d characters", minUsernameLength, maxUsernameLength))
		return
	}
	if strings.Contains(username, "@") {
		v.fail("username", "Username must not contain '@'")
	}
}

func (v *validator) email(email string) {
	if email == "" || len(email) > maxEmailLength {
		v.fail("email", fmt.Sprintf("Email must be between 1 and %d characters", maxEmailLength))
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.fail("email", "Invalid email format")
	}
}

func (v *validator) password(password string) {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength || n > maxPasswordLength {
		v.fail("password", fmt.Sprintf("Password must be between %d and %d characters", minPasswordLength, maxPasswordLength))
	}
}

func (v *validator) required(field, label, value string) {
	if value == "" {
		v.fail(field, label+" is required")
	}
}
