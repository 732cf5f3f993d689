package auth

import (
	"context"
	"fmt"
	"slices"
)

// Authorizer decides whether an identity may call a capability.
type Authorizer interface {
	Authorize(ctx context.Context, id *Identity, capability string) error
}

// AllowAll permits every call.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, *Identity, string) error { return nil }

// Wildcard grants every capability in a RoleAuthorizer.
const Wildcard = "*"

// RoleAuthorizer grants capabilities per role. An identity may call a
// capability when any of its roles lists that name or Wildcard.
type RoleAuthorizer struct {
	grants map[string][]string
}

// NewRoleAuthorizer copies grants, keyed by role.
func NewRoleAuthorizer(grants map[string][]string) *RoleAuthorizer {
	cp := make(map[string][]string, len(grants))
	for role, caps := range grants {
		cp[role] = slices.Clone(caps)
	}
	return &RoleAuthorizer{grants: cp}
}

func (a *RoleAuthorizer) Authorize(_ context.Context, id *Identity, capability string) error {
	if id == nil {
		return fmt.Errorf("%w: no identity for %q", ErrForbidden, capability)
	}
	for _, role := range id.Roles {
		caps := a.grants[role]
		if slices.Contains(caps, Wildcard) || slices.Contains(caps, capability) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not call %q", ErrForbidden, id.Principal, capability)
}

var (
	_ Authorizer = AllowAll{}
	_ Authorizer = (*RoleAuthorizer)(nil)
)
