package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	metricsReadTimeout  = 10 * time.Second
	metricsWriteTimeout = 10 * time.Second
	metricsIdleTimeout  = 60 * time.Second
)

// Metrics is the gateway's Prometheus instrumentation. It doubles as the
// metrics sink for the oauth, session, and bridge packages.
type Metrics struct {
	sessionsActive prometheus.Gauge
	tokensIssued   prometheus.Counter
	toolCalls      *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
}

// NewMetrics registers the gateway collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flowgate_sessions_active",
			Help: "Number of live MCP sessions.",
		}),
		tokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowgate_tokens_issued_total",
			Help: "Access tokens issued by the authorization server.",
		}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgate_tool_calls_total",
			Help: "Tool invocations forwarded to the backend, by tool and outcome.",
		}, []string{"tool", "status"}),
		toolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowgate_tool_call_duration_seconds",
			Help:    "Backend round-trip time per tool call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}

// TokenIssued implements oauth.Metrics.
func (m *Metrics) TokenIssued() {
	m.tokensIssued.Inc()
}

// SessionOpened implements session.Metrics.
func (m *Metrics) SessionOpened() {
	m.sessionsActive.Inc()
}

// SessionClosed implements session.Metrics.
func (m *Metrics) SessionClosed() {
	m.sessionsActive.Dec()
}

// ToolCall implements bridge.Metrics.
func (m *Metrics) ToolCall(tool string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// MetricsServer serves Prometheus metrics on a dedicated port, keeping
// operational data off the public gateway listener.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
	gatherer   prometheus.Gatherer
}

// NewMetricsServer creates a metrics server exposing gatherer at /metrics.
func NewMetricsServer(addr string, gatherer prometheus.Gatherer) *MetricsServer {
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	return &MetricsServer{addr: addr, gatherer: gatherer}
}

// Start runs the metrics listener. Blocks until shutdown or failure.
func (s *MetricsServer) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadTimeout,
		WriteTimeout:      metricsWriteTimeout,
		IdleTimeout:       metricsIdleTimeout,
	}

	slog.Info("starting metrics server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
