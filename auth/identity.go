package auth

import (
	"slices"
	"time"
)

// Method records how a caller authenticated.
type Method string

const (
	MethodAPIKey    Method = "api_key"
	MethodJWT       Method = "jwt"
	MethodAnonymous Method = "anonymous"
)

// Identity is an authenticated caller of the capability API.
type Identity struct {
	Principal string
	Roles     []string
	Method    Method
	Claims    map[string]any
	ExpiresAt time.Time
}

// HasRole reports whether the identity carries role.
func (id *Identity) HasRole(role string) bool {
	return id != nil && slices.Contains(id.Roles, role)
}

// IsAnonymous reports whether the caller presented no credentials.
func (id *Identity) IsAnonymous() bool {
	return id == nil || id.Method == MethodAnonymous
}

// Anonymous returns the identity used when authentication is disabled.
func Anonymous() *Identity {
	return &Identity{Principal: "anonymous", Method: MethodAnonymous}
}
