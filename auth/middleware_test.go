package auth

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonwraymond/toolhub/observe"
)

type failingAuth struct{}

func (failingAuth) Name() string              { return "failing" }
func (failingAuth) Supports(http.Header) bool { return true }
func (failingAuth) Authenticate(context.Context, http.Header) (*Identity, error) {
	return nil, errors.New("key store offline")
}

func serve(authn Authenticator, h http.Header) (*httptest.ResponseRecorder, *Identity) {
	var seen *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/calls", nil)
	for k, v := range h {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	Middleware(authn, nil)(next).ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddleware(t *testing.T) {
	store := NewKeyStore(APIKey{ID: "k", Hash: HashAPIKey("good"), Principal: "speaker"})
	chain := Chain{NewAPIKeyAuthenticator("", store)}

	rec, id := serve(chain, header(DefaultAPIKeyHeader, "good"))
	if rec.Code != http.StatusNoContent || id == nil || id.Principal != "speaker" {
		t.Fatalf("valid key: code=%d id=%+v", rec.Code, id)
	}

	rec, id = serve(chain, http.Header{})
	if rec.Code != http.StatusUnauthorized || id != nil {
		t.Errorf("missing credentials: code=%d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("401 without WWW-Authenticate")
	}

	rec, _ = serve(failingAuth{}, http.Header{})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("internal failure code = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "offline") {
		t.Error("internal error leaked to client")
	}

	rec, id = serve(nil, http.Header{})
	if rec.Code != http.StatusNoContent || !id.IsAnonymous() {
		t.Errorf("nil authenticator: code=%d id=%+v", rec.Code, id)
	}
}

func TestMiddleware_LogsRejection(t *testing.T) {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("warn", &buf)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	rec := httptest.NewRecorder()
	Middleware(Chain{}, logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/capabilities", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "authentication rejected") {
		t.Errorf("rejection not logged: %s", buf.String())
	}
}

func TestChain(t *testing.T) {
	keys := NewAPIKeyAuthenticator("", NewKeyStore(APIKey{Hash: HashAPIKey("k"), Principal: "p"}))
	j, _ := NewJWTAuthenticator(JWTConfig{Secret: []byte("x")})
	chain := Chain{keys, j}

	if !chain.Supports(header(DefaultAPIKeyHeader, "k")) || chain.Supports(http.Header{}) {
		t.Error("Supports mismatch")
	}
	h := header(DefaultAPIKeyHeader, "wrong")
	h.Set("Authorization", "Bearer junk")
	if _, err := chain.Authenticate(context.Background(), h); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("err = %v, want last authenticator's error", err)
	}
}
