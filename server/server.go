package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/toolhub/auth"
	"github.com/jonwraymond/toolhub/cache"
	"github.com/jonwraymond/toolhub/dispatch"
	"github.com/jonwraymond/toolhub/health"
	"github.com/jonwraymond/toolhub/observe"
	"github.com/jonwraymond/toolhub/resilience"
)

// SessionHeader carries the session ID on call requests and responses.
const SessionHeader = "X-Session-ID"

// RequestIDHeader carries the per-request ID.
const RequestIDHeader = "X-Request-ID"

// AdminRole may clear the cache when authentication is enabled.
const AdminRole = "admin"

// maxBody bounds a call request.
const maxBody = 1 << 20

// Options are the collaborators a Server serves.
type Options struct {
	Dispatcher *dispatch.Dispatcher
	Pool       *cache.Pool
	Sessions   *Sessions
	Health     *health.Aggregator

	// Authenticator may be nil for anonymous access.
	Authenticator auth.Authenticator
	// Authorizer defaults to auth.AllowAll.
	Authorizer auth.Authorizer

	// Bulkhead bounds concurrent calls. Nil means unbounded.
	Bulkhead *resilience.Bulkhead

	// Metrics serves /metrics when set.
	Metrics http.Handler

	Logger observe.Logger
}

// Server is the HTTP surface of the capability dispatcher.
type Server struct {
	opts   Options
	logger observe.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = observe.NopLogger()
	}
	if opts.Authorizer == nil {
		opts.Authorizer = auth.AllowAll{}
	}
	if opts.Sessions == nil {
		opts.Sessions = NewSessions("", 0)
	}
	return &Server{opts: opts, logger: opts.Logger}
}

// Handler returns the routed handler. Health and metrics endpoints are
// public; everything under /v1 requires authentication.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /v1/capabilities", s.handleCapabilities)
	api.HandleFunc("POST /v1/calls", s.handleCall)
	api.HandleFunc("GET /v1/cache/stats", s.handleCacheStats)
	api.HandleFunc("DELETE /v1/cache", s.handleCacheClear)

	mux := http.NewServeMux()
	mux.Handle("/v1/", auth.Middleware(s.opts.Authenticator, s.logger)(api))
	if s.opts.Health != nil {
		health.Register(mux, s.opts.Health)
	}
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}
	return s.logRequests(mux)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	defs := s.opts.Dispatcher.Registry().DescribeAll()
	writeJSON(w, http.StatusOK, map[string]any{"capabilities": defs})
}

// callRequest accepts arguments either as a raw JSON string, which is
// passed through untouched, or as an object.
type callRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type callResponse struct {
	SessionID string             `json:"session_id"`
	Response  *dispatch.Response `json:"response"`
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req callRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	args, err := rawArguments(req.Arguments)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := auth.IdentityFromContext(ctx)
	if err := s.opts.Authorizer.Authorize(ctx, id, req.Name); err != nil {
		writeError(w, http.StatusForbidden, err)
		return
	}

	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	w.Header().Set(SessionHeader, sessionID)

	if b := s.opts.Bulkhead; b != nil {
		if err := b.Acquire(ctx); err != nil {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, err)
			return
		}
		defer b.Release()
	}

	resp, err := s.opts.Dispatcher.Dispatch(ctx, s.opts.Sessions.Get(sessionID), dispatch.Call{Name: req.Name, Arguments: args})
	if err != nil {
		writeError(w, dispatchStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, callResponse{SessionID: sessionID, Response: resp})
}

func rawArguments(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode arguments: %w", err)
		}
		return s, nil
	}
	return string(raw), nil
}

func dispatchStatus(err error) int {
	switch {
	case errors.Is(err, dispatch.ErrMalformedArguments):
		return http.StatusBadRequest
	case errors.Is(err, dispatch.ErrUnsupportedConvention):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.opts.Pool == nil {
		writeError(w, http.StatusNotFound, errors.New("cache disabled"))
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Pool.Stats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.opts.Pool == nil {
		writeError(w, http.StatusNotFound, errors.New("cache disabled"))
		return
	}
	id := auth.IdentityFromContext(r.Context())
	if s.opts.Authenticator != nil && !id.HasRole(AdminRole) {
		writeError(w, http.StatusForbidden, auth.ErrForbidden)
		return
	}
	s.opts.Pool.ClearAll(r.Context())
	s.logger.Info(r.Context(), "cache cleared", observe.F("principal", auth.PrincipalFromContext(r.Context())))
	w.WriteHeader(http.StatusNoContent)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests assigns a request ID and logs one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		fields := []observe.Field{
			observe.F("request_id", reqID),
			observe.F("method", r.Method),
			observe.F("path", r.URL.Path),
			observe.F("status", rec.status),
			observe.F("duration_ms", time.Since(start).Milliseconds()),
		}
		if rec.status >= 500 {
			s.logger.Error(r.Context(), "request failed", fields...)
			return
		}
		s.logger.Debug(r.Context(), "request served", fields...)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Run serves srv until ctx ends, then shuts it down gracefully.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}
