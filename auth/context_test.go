package auth

import (
	"context"
	"testing"
)

func TestContextIdentity(t *testing.T) {
	ctx := context.Background()
	if IdentityFromContext(ctx) != nil || PrincipalFromContext(ctx) != "" {
		t.Fatal("empty context should carry no identity")
	}
	ctx = WithIdentity(ctx, &Identity{Principal: "speaker", Method: MethodAPIKey})
	if PrincipalFromContext(ctx) != "speaker" || IdentityFromContext(ctx).IsAnonymous() {
		t.Error("identity not attached")
	}
	if !Anonymous().IsAnonymous() {
		t.Error("Anonymous() should be anonymous")
	}
}
