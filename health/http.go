package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// LivenessHandler answers 200 while the process is serving.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler answers 503 only when a check is unhealthy.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := agg.CheckAll(r.Context())

		w.Header().Set("Content-Type", "text/plain")
		switch report.Status {
		case StatusHealthy:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		case StatusDegraded:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNHEALTHY"))
		}
	}
}

// HealthResponse is the body of the detailed endpoint.
type HealthResponse struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Checks    []CheckResponse `json:"checks"`
}

// CheckResponse is one check in HealthResponse.
type CheckResponse struct {
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// DetailedHandler reports every check as JSON.
func DetailedHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := agg.CheckAll(r.Context())
		writeJSON(w, report.Status, toResponse(report))
	}
}

// CheckHandler reports the check named by the {name} path value.
func CheckHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		name := r.PathValue("name")
		result, err := agg.Check(ctx, name)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, result.Status, checkResponse(NamedResult{Name: name, Result: result}))
	}
}

// Register mounts the health endpoints on mux.
func Register(mux *http.ServeMux, agg *Aggregator) {
	mux.HandleFunc("GET /healthz", LivenessHandler())
	mux.HandleFunc("GET /readyz", ReadinessHandler(agg))
	mux.HandleFunc("GET /health", DetailedHandler(agg))
	mux.HandleFunc("GET /health/{name}", CheckHandler(agg))
}

func toResponse(report Report) HealthResponse {
	resp := HealthResponse{
		Status:    report.Status.String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make([]CheckResponse, 0, len(report.Checks)),
	}
	for _, c := range report.Checks {
		resp.Checks = append(resp.Checks, checkResponse(c))
	}
	return resp
}

func checkResponse(c NamedResult) CheckResponse {
	out := CheckResponse{
		Name:     c.Name,
		Status:   c.Status.String(),
		Message:  c.Message,
		Duration: c.Duration.String(),
		Details:  c.Details,
	}
	if c.Error != nil {
		out.Error = c.Error.Error()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status Status, body any) {
	w.Header().Set("Content-Type", "application/json")
	if status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(body)
}
