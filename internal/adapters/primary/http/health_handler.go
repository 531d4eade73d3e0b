package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

const healthCheckTimeout = 5 * time.Second

// Check states
const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
	statusUnknown   = "unknown"
)

// EngineStatusProvider reports the detection engine state.
type EngineStatusProvider interface {
	GetStatus(ctx context.Context) domain.EngineStatus
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// RuntimeStats is the process section of the detailed health report.
type RuntimeStats struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	Goroutines      int    `json:"goroutines"`
}

// DetailedHealthResponse is served on /health.
type DetailedHealthResponse struct {
	HealthResponse
	Runtime RuntimeStats `json:"runtime"`
}

// HealthHandler serves the liveness, readiness and detailed health probes.
// Only the ticket source gates readiness; an untrained engine still serves
// because it trains on first use.
type HealthHandler struct {
	source    ports.TicketSourceChecker
	engine    EngineStatusProvider
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(source ports.TicketSourceChecker, engine EngineStatusProvider, version string) *HealthHandler {
	return &HealthHandler{
		source:    source,
		engine:    engine,
		startTime: time.Now(),
		version:   version,
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness answers as long as the process can serve HTTP.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    statusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness reports 503 while the ticket source is unreachable.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	report := h.report(r.Context(), statusUnhealthy, false)
	WriteJSON(w, statusCodeFor(report.Status), report)
}

// HandleHealth adds the engine state and runtime stats to the readiness
// report.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.report(r.Context(), statusDegraded, true)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	WriteJSON(w, statusCodeFor(report.Status), DetailedHealthResponse{
		HealthResponse: report,
		Runtime: RuntimeStats{
			AllocBytes:      mem.Alloc,
			TotalAllocBytes: mem.TotalAlloc,
			SysBytes:        mem.Sys,
			NumGC:           mem.NumGC,
			Goroutines:      runtime.NumGoroutine(),
		},
	})
}

// report runs the checks. failedStatus is the overall status used when the
// ticket source check fails.
func (h *HealthHandler) report(ctx context.Context, failedStatus string, withEngine bool) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	checks := map[string]Check{"ticket_source": h.checkTicketSource(ctx)}
	if withEngine {
		checks["engine"] = h.checkEngine(ctx)
	}

	overall := statusHealthy
	if checks["ticket_source"].Status != statusHealthy {
		overall = failedStatus
	}

	return HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
	}
}

func statusCodeFor(status string) int {
	if status == statusHealthy {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func (h *HealthHandler) checkTicketSource(ctx context.Context) Check {
	if h.source == nil {
		return Check{Status: statusUnhealthy, Message: "Ticket source not configured"}
	}

	start := time.Now()
	err := h.source.Ping(ctx)
	latency := time.Since(start).String()
	if err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error(), Latency: latency}
	}
	return Check{Status: statusHealthy, Latency: latency}
}

func (h *HealthHandler) checkEngine(ctx context.Context) Check {
	if h.engine == nil {
		return Check{Status: statusUnknown}
	}

	status := h.engine.GetStatus(ctx)
	if !status.Trained || status.LastTraining == nil {
		return Check{Status: statusHealthy, Message: "baseline not trained"}
	}
	return Check{
		Status:  statusHealthy,
		Message: fmt.Sprintf("last trained %s, %d anomalies", *status.LastTraining, status.AnomaliesDetected),
	}
}
