package auth

import "errors"

var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenMalformed     = errors.New("auth: token malformed")
	ErrForbidden          = errors.New("auth: access denied")
	ErrInvalidConfig      = errors.New("auth: invalid configuration")
)
