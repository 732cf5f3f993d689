package auth

import (
	"context"
	"net/http"
)

// Authenticator turns request credentials into an Identity.
//
// Contract:
//   - Concurrency: implementations are safe for concurrent use.
//   - Errors: rejected credentials return one of the package sentinels
//     (ErrMissingCredentials, ErrInvalidCredentials, ErrTokenExpired,
//     ErrTokenMalformed). Any other error is an internal failure.
type Authenticator interface {
	Name() string

	// Supports reports whether h carries credentials this authenticator
	// understands.
	Supports(h http.Header) bool

	Authenticate(ctx context.Context, h http.Header) (*Identity, error)
}

// Chain tries each authenticator that supports the request, in order, and
// returns the first identity. With no supporting authenticator the result
// is ErrMissingCredentials.
type Chain []Authenticator

func (c Chain) Name() string { return "chain" }

func (c Chain) Supports(h http.Header) bool {
	for _, a := range c {
		if a.Supports(h) {
			return true
		}
	}
	return false
}

func (c Chain) Authenticate(ctx context.Context, h http.Header) (*Identity, error) {
	var last error = ErrMissingCredentials
	for _, a := range c {
		if !a.Supports(h) {
			continue
		}
		id, err := a.Authenticate(ctx, h)
		if err == nil {
			return id, nil
		}
		last = err
	}
	return nil, last
}

var _ Authenticator = Chain(nil)
