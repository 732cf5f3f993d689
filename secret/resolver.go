package secret

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// RefPrefix starts a secret reference: secretref:<provider>:<ref>.
const RefPrefix = "secretref:"

var inlineRef = regexp.MustCompile(`secretref:([A-Za-z0-9_-]+):([A-Za-z0-9_./-]+)`)

// Resolver expands configuration values. Environment variables are
// expanded first, then every secret reference is replaced by its
// provider's value.
type Resolver struct {
	providers map[string]Provider
}

// NewResolver creates a resolver over providers.
func NewResolver(providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// ParseRef splits a whole-value reference.
func ParseRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, RefPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, ok = strings.Cut(rest, ":")
	if !ok || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

// Resolve expands one value. Inline references such as
// "Bearer secretref:env:TOKEN" are resolved in place.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if provider, ref, ok := ParseRef(expanded); ok {
		return r.lookup(ctx, provider, ref)
	}

	matches := inlineRef.FindAllStringSubmatchIndex(expanded, -1)
	out := expanded
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		v, err := r.lookup(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + v + out[m[1]:]
	}
	return out, nil
}

// ResolveAll resolves each target in place, stopping at the first error.
func (r *Resolver) ResolveAll(ctx context.Context, targets ...*string) error {
	for _, t := range targets {
		if t == nil || *t == "" {
			continue
		}
		v, err := r.Resolve(ctx, *t)
		if err != nil {
			return err
		}
		*t = v
	}
	return nil
}

func (r *Resolver) lookup(ctx context.Context, provider, ref string) (string, error) {
	p, ok := r.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s:%s resolved empty", ErrNotFound, provider, ref)
	}
	return v, nil
}
