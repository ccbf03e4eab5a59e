package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker provides the liveness and readiness endpoints.
type HealthChecker struct {
	ready        atomic.Bool
	shuttingDown atomic.Bool
	startTime    time.Time
}

// NewHealthChecker creates a HealthChecker that starts ready.
func NewHealthChecker() *HealthChecker {
	h := &HealthChecker{startTime: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetShuttingDown marks the server as draining. Readiness flips to
// failing so load balancers stop routing new traffic.
func (h *HealthChecker) SetShuttingDown() {
	h.shuttingDown.Store(true)
}

// HealthResponse is the JSON body of the health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler serves /healthz. Liveness only asserts the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		})
	})
}

// ReadinessHandler serves /readyz.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		checks := make(map[string]string)
		allOK := true

		if h.ready.Load() {
			checks["ready"] = healthStatusOK
		} else {
			checks["ready"] = healthStatusNotReady
			allOK = false
		}

		if h.shuttingDown.Load() {
			checks["shutdown"] = healthStatusShuttingDown
			allOK = false
		} else {
			checks["shutdown"] = healthStatusOK
		}

		response := HealthResponse{Checks: checks}
		if allOK {
			response.Status = healthStatusOK
			w.WriteHeader(http.StatusOK)
		} else {
			response.Status = healthStatusNotReady
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	})
}
