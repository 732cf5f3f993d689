package auth_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/toolhub/auth"
)

func ExampleNewAPIKeyAuthenticator() {
	store := auth.NewKeyStore(auth.APIKey{
		ID:        "ops",
		Hash:      auth.HashAPIKey("s3cret"),
		Principal: "ops-team",
		Roles:     []string{"admin"},
	})
	authn := auth.NewAPIKeyAuthenticator(auth.DefaultAPIKeyHeader, store)

	h := http.Header{}
	h.Set(auth.DefaultAPIKeyHeader, "s3cret")
	id, err := authn.Authenticate(context.Background(), h)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(id.Principal, id.Method, id.HasRole("admin"))

	h.Set(auth.DefaultAPIKeyHeader, "wrong")
	_, err = authn.Authenticate(context.Background(), h)
	fmt.Println(errors.Is(err, auth.ErrInvalidCredentials))
	// Output:
	// ops-team api_key true
	// true
}

func ExampleJWTAuthenticator_IssueToken() {
	authn, err := auth.NewJWTAuthenticator(auth.JWTConfig{
		Secret: []byte("signing-key"),
		Issuer: "toolhub",
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	token, err := authn.IssueToken("agent-7", []string{"reader"}, time.Minute)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	id, err := authn.Authenticate(context.Background(), h)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(id.Principal, id.Method, id.Roles)
	// Output:
	// agent-7 jwt [reader]
}

func ExampleChain() {
	store := auth.NewKeyStore(auth.APIKey{
		ID:        "cli",
		Hash:      auth.HashAPIKey("k1"),
		Principal: "cli-user",
	})
	jwtAuthn, _ := auth.NewJWTAuthenticator(auth.JWTConfig{Secret: []byte("signing-key")})
	chain := auth.Chain{
		auth.NewAPIKeyAuthenticator(auth.DefaultAPIKeyHeader, store),
		jwtAuthn,
	}

	h := http.Header{}
	fmt.Println(chain.Supports(h))

	h.Set(auth.DefaultAPIKeyHeader, "k1")
	id, _ := chain.Authenticate(context.Background(), h)
	fmt.Println(id.Principal)
	// Output:
	// false
	// cli-user
}

func ExampleNewRoleAuthorizer() {
	authz := auth.NewRoleAuthorizer(map[string][]string{
		"admin":  {auth.Wildcard},
		"reader": {"get_weather_cached"},
	})
	reader := &auth.Identity{Principal: "agent-7", Roles: []string{"reader"}}

	fmt.Println(authz.Authorize(context.Background(), reader, "get_weather_cached"))
	err := authz.Authorize(context.Background(), reader, "clear_cache")
	fmt.Println(errors.Is(err, auth.ErrForbidden))
	// Output:
	// <nil>
	// true
}

func ExampleNew() {
	authn, authz, err := auth.New(auth.Config{Enabled: false})
	fmt.Println(authn == nil, err)

	// Disabled auth lets every identity through.
	fmt.Println(authz.Authorize(context.Background(), auth.Anonymous(), "anything"))
	// Output:
	// true <nil>
	// <nil>
}
