package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/flowgate/flowgate/internal/hosts"
	"github.com/flowgate/flowgate/internal/logging"
	"github.com/flowgate/flowgate/internal/oauth"
	"github.com/flowgate/flowgate/internal/session"
)

// DefaultHeartbeatInterval is how often live SSE sessions receive a
// keep-alive frame.
const DefaultHeartbeatInterval = 30 * time.Second

// Config carries the gateway's static settings.
type Config struct {
	// Admin credentials for the login endpoints.
	AdminUser     string
	AdminPassword string

	// BaseURL, when set, pins the public URL used in discovery instead
	// of deriving it from forwarded headers.
	BaseURL string

	// Fallback is the environment-supplied host of last resort, nil
	// when not configured.
	Fallback *hosts.FallbackHost

	// Version is reported to MCP clients during initialization.
	Version string

	// HeartbeatInterval overrides the SSE keep-alive cadence. Zero
	// means DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration
}

// Gateway is the HTTP surface of the MCP gateway.
type Gateway struct {
	cfg      Config
	store    *hosts.Store
	auth     *oauth.Handler
	registry *session.Registry
	metrics  *Metrics
	health   *HealthChecker
	logger   *slog.Logger
}

// New assembles the gateway around a credential store. metrics may be
// nil when the metrics listener is disabled.
func New(cfg Config, store *hosts.Store, metrics *Metrics, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}

	authOpts := []oauth.HandlerOption{
		oauth.WithLogger(logging.WithComponent(logger, "oauth")),
	}
	sessionOpts := []session.Option{
		session.WithLogger(logging.WithComponent(logger, "session")),
	}
	if metrics != nil {
		authOpts = append(authOpts, oauth.WithMetrics(metrics))
		sessionOpts = append(sessionOpts, session.WithMetrics(metrics))
	}

	return &Gateway{
		cfg:   cfg,
		store: store,
		auth: oauth.NewHandler(oauth.HandlerConfig{
			AdminUser:     cfg.AdminUser,
			AdminPassword: cfg.AdminPassword,
			BaseURL:       cfg.BaseURL,
		}, store, cfg.Fallback, authOpts...),
		registry: session.NewRegistry(sessionOpts...),
		metrics:  metrics,
		health:   NewHealthChecker(),
		logger:   logger,
	}
}

// Auth exposes the authorization server, mainly for tests.
func (g *Gateway) Auth() *oauth.Handler { return g.auth }

// Registry exposes the session registry, mainly for tests.
func (g *Gateway) Registry() *session.Registry { return g.registry }

// Health exposes the health checker so the serve loop can flip
// readiness during shutdown.
func (g *Gateway) Health() *HealthChecker { return g.health }

// Close releases background resources.
func (g *Gateway) Close() {
	g.auth.Close()
}

// Router builds the complete route table.
func (g *Gateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(g.recoverMiddleware)

	// OAuth surface.
	r.HandleFunc("/.well-known/openid-configuration", g.auth.ServeDiscovery).Methods(http.MethodGet)
	r.HandleFunc("/oauth/authorize", g.auth.ServeAuthorize).Methods(http.MethodGet)
	r.HandleFunc("/oauth/login", g.auth.ServeLogin).Methods(http.MethodPost)
	r.HandleFunc("/oauth/token", g.auth.ServeToken).Methods(http.MethodPost)
	r.HandleFunc("/oauth/userinfo", g.auth.ServeUserinfo).Methods(http.MethodGet)

	// MCP surface, bearer gated.
	r.Handle("/mcp", g.auth.RequireToken(http.HandlerFunc(g.handleSSE))).Methods(http.MethodGet)
	r.Handle("/mcp/message", g.auth.RequireToken(http.HandlerFunc(g.handleMessage))).Methods(http.MethodPost)
	r.Handle("/mcp/session", g.auth.RequireToken(http.HandlerFunc(g.handleSessionDelete))).Methods(http.MethodDelete)

	// Admin surface, cookie gated.
	r.Handle("/admin", g.auth.RequireAdmin(http.HandlerFunc(g.handleAdminPage))).Methods(http.MethodGet)
	r.Handle("/admin/api/hosts", g.auth.RequireAdmin(http.HandlerFunc(g.handleHostsList))).Methods(http.MethodGet)
	r.Handle("/admin/api/hosts", g.auth.RequireAdmin(http.HandlerFunc(g.handleHostsAdd))).Methods(http.MethodPost)
	r.Handle("/admin/api/hosts/test", g.auth.RequireAdmin(http.HandlerFunc(g.handleHostsTest))).Methods(http.MethodPost)
	r.Handle("/admin/api/hosts/{id}", g.auth.RequireAdmin(http.HandlerFunc(g.handleHostsDelete))).Methods(http.MethodDelete)
	r.Handle("/admin/api/hosts/{id}/default", g.auth.RequireAdmin(http.HandlerFunc(g.handleHostsSetDefault))).Methods(http.MethodPut)

	// Probes.
	r.Handle("/healthz", g.health.LivenessHandler()).Methods(http.MethodGet)
	r.Handle("/readyz", g.health.ReadinessHandler()).Methods(http.MethodGet)

	return r
}

// recoverMiddleware converts panics into a generic 500. Nothing internal
// leaks to the client, and no request can take the process down.
func (g *Gateway) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				g.logger.Error("panic in request handler",
					"path", r.URL.Path,
					"panic", rec,
				)
				writeJSON(w, http.StatusInternalServerError, map[string]string{
					"error": "internal_error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
