package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/hosts"
	"github.com/flowgate/flowgate/internal/logging"
	"github.com/flowgate/flowgate/internal/n8n"
	"github.com/flowgate/flowgate/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		listenAddr  string
		metricsAddr string
		noMetrics   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP gateway",
		Long: `Starts the flowgate HTTP server: the OAuth 2.1 authorization
endpoints, the SSE-based MCP transport, and the host administration API.

Configuration is read from the environment (see .env support):

  FLOWGATE_LISTEN_ADDR     gateway listen address (default :8080)
  FLOWGATE_BASE_URL        public base URL used as the OAuth issuer
  FLOWGATE_ADMIN_USER      admin login user (default admin)
  FLOWGATE_ADMIN_PASSWORD  admin login password (required)
  FLOWGATE_HOSTS_FILE      credential store path (default ~/.flowgate/hosts.json)
  N8N_API_URL              fallback n8n instance when no host is configured
  N8N_API_KEY              API key for the fallback instance`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), listenAddr, metricsAddr, noMetrics)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides FLOWGATE_LISTEN_ADDR)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics listen address (overrides FLOWGATE_METRICS_ADDR)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the metrics listener")

	return cmd
}

func runServe(parent context.Context, listenAddr, metricsAddr string, noMetrics bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if noMetrics {
		cfg.MetricsEnabled = false
	}
	if cfg.AdminPassword == "" {
		return fmt.Errorf("FLOWGATE_ADMIN_PASSWORD must be set")
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	store, err := hosts.NewStore(cfg.HostsFile,
		hosts.WithProber(&n8n.Prober{}),
		hosts.WithLogger(logging.WithComponent(logger, "hosts")),
	)
	if err != nil {
		return fmt.Errorf("opening host store: %w", err)
	}

	var fallback *hosts.FallbackHost
	if cfg.HasFallbackHost() {
		fallback = &hosts.FallbackHost{BaseURL: cfg.FallbackAPIURL, APIKey: cfg.FallbackAPIKey}
		logger.Info("environment fallback host configured")
	}

	var metrics *server.Metrics
	if cfg.MetricsEnabled {
		metrics = server.NewMetrics(prometheus.DefaultRegisterer)
	}

	gateway := server.New(server.Config{
		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,
		BaseURL:       cfg.BaseURL,
		Fallback:      fallback,
		Version:       version,
	}, store, metrics, logger)
	defer gateway.Close()

	// WriteTimeout stays zero: SSE streams are long-lived by design and
	// a write deadline would sever every session.
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           gateway.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting gateway", "addr", cfg.ListenAddr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway listener: %w", err)
		}
		return nil
	})

	var metricsServer *server.MetricsServer
	if cfg.MetricsEnabled {
		metricsServer = server.NewMetricsServer(cfg.MetricsAddr, prometheus.DefaultGatherer)
		g.Go(func() error {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		gateway.Health().SetShuttingDown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("gateway shutdown: %w", err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
