package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/toolhub/observe"
)

// Middleware authenticates every request with authn and attaches the
// identity to the request context. Rejected credentials answer 401; an
// internal authenticator failure answers 500. A nil authn attaches
// Anonymous.
func Middleware(authn Authenticator, logger observe.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authn == nil {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), Anonymous())))
				return
			}

			id, err := authn.Authenticate(r.Context(), r.Header)
			if err != nil {
				if rejected(err) {
					logger.Warn(r.Context(), "authentication rejected",
						observe.F("path", r.URL.Path), observe.Err(err))
					w.Header().Set("WWW-Authenticate", `Bearer realm="toolhub"`)
					writeError(w, http.StatusUnauthorized, err)
					return
				}
				logger.Error(r.Context(), "authentication failed", observe.Err(err))
				writeError(w, http.StatusInternalServerError, errors.New("authentication unavailable"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func rejected(err error) bool {
	for _, sentinel := range []error{ErrMissingCredentials, ErrInvalidCredentials, ErrTokenExpired, ErrTokenMalformed} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
