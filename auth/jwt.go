package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures JWTAuthenticator.
type JWTConfig struct {
	// Secret is the HMAC signing key.
	Secret []byte

	// Issuer and Audience are enforced when set.
	Issuer   string
	Audience string

	// RolesClaim names the claim holding a list of roles. Default: "roles"
	RolesClaim string

	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration
}

// JWTAuthenticator accepts HMAC-signed bearer tokens.
type JWTAuthenticator struct {
	config JWTConfig
	parser *jwt.Parser
}

// NewJWTAuthenticator validates config and builds the parser.
func NewJWTAuthenticator(config JWTConfig) (*JWTAuthenticator, error) {
	if len(config.Secret) == 0 {
		return nil, fmt.Errorf("%w: jwt secret is empty", ErrInvalidConfig)
	}
	if config.RolesClaim == "" {
		config.RolesClaim = "roles"
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(config.Leeway),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	return &JWTAuthenticator{config: config, parser: jwt.NewParser(opts...)}, nil
}

func (a *JWTAuthenticator) Name() string { return "jwt" }

func (a *JWTAuthenticator) Supports(h http.Header) bool {
	_, ok := bearer(h)
	return ok
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, h http.Header) (*Identity, error) {
	raw, ok := bearer(h)
	if !ok {
		return nil, ErrMissingCredentials
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.config.Secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidCredentials)
	}
	id := &Identity{
		Principal: sub,
		Method:    MethodJWT,
		Claims:    map[string]any(claims),
	}
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		id.ExpiresAt = exp.Time
	}
	if roles, ok := claims[a.config.RolesClaim].([]any); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok {
				id.Roles = append(id.Roles, s)
			}
		}
	}
	return id, nil
}

// IssueToken signs a token for sub, for the CLI and tests.
func (a *JWTAuthenticator) IssueToken(sub string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":               sub,
		"iat":               now.Unix(),
		"exp":               now.Add(ttl).Unix(),
		a.config.RolesClaim: roles,
	}
	if a.config.Issuer != "" {
		claims["iss"] = a.config.Issuer
	}
	if a.config.Audience != "" {
		claims["aud"] = a.config.Audience
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.config.Secret)
}

func bearer(h http.Header) (string, bool) {
	v := h.Get("Authorization")
	scheme, token, ok := strings.Cut(v, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

var _ Authenticator = (*JWTAuthenticator)(nil)
