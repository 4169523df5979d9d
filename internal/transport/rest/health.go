package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// pinger is anything the health endpoints can check: the postgres pool,
// the blob store and the template cache.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one checked dependency. A failing optional check
// degrades the service without taking it out of rotation.
type HealthCheck struct {
	Name     string
	Pinger   pinger
	Optional bool
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	checks  []HealthCheck
	version string
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler probing checks in parallel.
func NewHealthHandler(version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, version: version, timeout: 3 * time.Second}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusDown     = "down"
)

// Live reports liveness. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    statusOK,
		Timestamp: time.Now(),
	})
}

// Ready reports readiness: 503 when a required dependency is down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	overall, components := h.runChecks(r.Context())
	for name, c := range components {
		components[name] = CompStatus{Status: c.Status}
	}
	writeJSON(w, httpStatus(overall), HealthResponse{
		Status:     overall,
		Components: components,
		Timestamp:  time.Now(),
	})
}

// Health is the full health check with per-component latency and version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	overall, components := h.runChecks(r.Context())
	writeJSON(w, httpStatus(overall), HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func (h *HealthHandler) runChecks(ctx context.Context) (string, map[string]CompStatus) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var mu sync.Mutex
	components := make(map[string]CompStatus, len(h.checks))
	overall := statusOK

	var g errgroup.Group
	for _, c := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := c.Pinger.Ping(ctx)
			latency := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				components[c.Name] = CompStatus{Status: statusOK, Latency: latency.String()}
				return nil
			}
			components[c.Name] = CompStatus{Status: statusDown}
			switch {
			case !c.Optional:
				overall = statusDown
			case overall == statusOK:
				overall = statusDegraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return overall, components
}

func httpStatus(overall string) int {
	if overall == statusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
