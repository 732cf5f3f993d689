package auth

import (
	"errors"
	"fmt"
	"time"
)

// KeyConfig declares one API key. Exactly one of Key and Hash is set; Key
// is hashed on load and never kept.
type KeyConfig struct {
	ID        string    `yaml:"id"`
	Key       string    `yaml:"key"`
	Hash      string    `yaml:"hash"`
	Principal string    `yaml:"principal"`
	Roles     []string  `yaml:"roles"`
	ExpiresAt time.Time `yaml:"expires_at"`
}

// JWTSettings is the configuration form of JWTConfig.
type JWTSettings struct {
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	Audience string        `yaml:"audience"`
	Leeway   time.Duration `yaml:"leeway"`
}

// Config selects the authenticators and role grants for the HTTP API.
type Config struct {
	Enabled bool        `yaml:"enabled"`
	Header  string      `yaml:"api_key_header"`
	APIKeys []KeyConfig `yaml:"api_keys"`
	JWT     JWTSettings `yaml:"jwt"`

	// Grants maps a role to the capabilities it may call. Empty grants
	// allow every authenticated caller.
	Grants map[string][]string `yaml:"grants"`
}

// Validate reports every configuration problem.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if len(c.APIKeys) == 0 && c.JWT.Secret == "" {
		errs = append(errs, fmt.Errorf("%w: enabled without api keys or jwt secret", ErrInvalidConfig))
	}
	seen := make(map[string]bool, len(c.APIKeys))
	for i, k := range c.APIKeys {
		if (k.Key == "") == (k.Hash == "") {
			errs = append(errs, fmt.Errorf("%w: api_keys[%d]: set exactly one of key and hash", ErrInvalidConfig, i))
		}
		if k.Principal == "" {
			errs = append(errs, fmt.Errorf("%w: api_keys[%d]: principal is required", ErrInvalidConfig, i))
		}
		if k.ID != "" && seen[k.ID] {
			errs = append(errs, fmt.Errorf("%w: api_keys[%d]: duplicate id %q", ErrInvalidConfig, i, k.ID))
		}
		seen[k.ID] = true
	}
	return errors.Join(errs...)
}

// New builds the authenticator and authorizer described by c. A disabled
// config yields a nil Authenticator, which Middleware treats as anonymous
// access.
func New(c Config) (Authenticator, Authorizer, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	if !c.Enabled {
		return nil, AllowAll{}, nil
	}

	var chain Chain
	if len(c.APIKeys) > 0 {
		store := NewKeyStore()
		for _, k := range c.APIKeys {
			hash := k.Hash
			if k.Key != "" {
				hash = HashAPIKey(k.Key)
			}
			store.Add(APIKey{ID: k.ID, Hash: hash, Principal: k.Principal, Roles: k.Roles, ExpiresAt: k.ExpiresAt})
		}
		chain = append(chain, NewAPIKeyAuthenticator(c.Header, store))
	}
	if c.JWT.Secret != "" {
		j, err := NewJWTAuthenticator(JWTConfig{
			Secret:   []byte(c.JWT.Secret),
			Issuer:   c.JWT.Issuer,
			Audience: c.JWT.Audience,
			Leeway:   c.JWT.Leeway,
		})
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, j)
	}

	var authz Authorizer = AllowAll{}
	if len(c.Grants) > 0 {
		authz = NewRoleAuthorizer(c.Grants)
	}
	return chain, authz, nil
}
