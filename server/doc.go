// Package server exposes the capability dispatcher over HTTP.
//
// Routes:
//
//	GET    /v1/capabilities  function definitions for the model
//	POST   /v1/calls         dispatch one call; X-Session-ID selects the session
//	GET    /v1/cache/stats   cache pool statistics
//	DELETE /v1/cache         clear the cache (admin role)
//	GET    /healthz /readyz /health /health/{name}
//	GET    /metrics
//
// Prompt state lives in an in-memory Sessions store keyed by session ID.
package server
