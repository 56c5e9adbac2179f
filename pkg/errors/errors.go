package errors

import (
	"errors"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrNilUser            = errors.New("user is nil")
	ErrUsernameExists     = errors.New("username is already in use")
	ErrEmailExists        = errors.New("email is already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenNotFound      = errors.New("refresh token not found")
	ErrTokenInvalid       = errors.New("token is invalid or has been revoked")
	ErrTokenExpired       = errors.New("token is expired")
	ErrIntegrity          = errors.New("stored credential data is inconsistent")
	ErrInternal           = errors.New("internal error")
)
