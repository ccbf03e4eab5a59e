package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all environment-based configuration for flowgate.
type Config struct {
	// ListenAddr is the address the gateway HTTP server binds to.
	ListenAddr string `env:"FLOWGATE_LISTEN_ADDR" envDefault:":8080"`

	// BaseURL is the public base URL of the gateway. Used as the OAuth
	// issuer and to build discovery endpoint URLs when no forwarded
	// host headers are present. Defaults to http://localhost<addr>.
	BaseURL string `env:"FLOWGATE_BASE_URL"`

	// Admin credentials gating /oauth/authorize login and /admin/api.
	AdminUser     string `env:"FLOWGATE_ADMIN_USER" envDefault:"admin"`
	AdminPassword string `env:"FLOWGATE_ADMIN_PASSWORD"`

	// HostsFile is the JSON file the credential store persists to.
	// Defaults to ~/.flowgate/hosts.json.
	HostsFile string `env:"FLOWGATE_HOSTS_FILE"`

	// Environment fallback host: used when no host is configured in the
	// store and a request carries no explicit host hint. Both must be
	// set for the fallback to exist.
	FallbackAPIURL string `env:"N8N_API_URL"`
	FallbackAPIKey string `env:"N8N_API_KEY"`

	// Metrics server settings.
	MetricsEnabled bool   `env:"FLOWGATE_METRICS_ENABLED" envDefault:"true"`
	MetricsAddr    string `env:"FLOWGATE_METRICS_ADDR" envDefault:":9090"`

	// Logging.
	LogLevel  string `env:"FLOWGATE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"FLOWGATE_LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.HostsFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory for hosts file: %w", err)
		}
		cfg.HostsFile = filepath.Join(home, ".flowgate", "hosts.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks invariants that cannot be expressed as struct tags.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid FLOWGATE_BASE_URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("FLOWGATE_BASE_URL must be http or https, got %q", u.Scheme)
		}
	}

	if c.FallbackAPIURL != "" {
		if _, err := url.Parse(c.FallbackAPIURL); err != nil {
			return fmt.Errorf("invalid N8N_API_URL: %w", err)
		}
	}

	// A key without a URL (or vice versa) is a half-configured fallback;
	// treat it as a configuration error rather than silently ignoring it.
	if (c.FallbackAPIURL == "") != (c.FallbackAPIKey == "") {
		return fmt.Errorf("N8N_API_URL and N8N_API_KEY must be set together")
	}

	return nil
}

// HasFallbackHost reports whether an environment fallback host is configured.
func (c *Config) HasFallbackHost() bool {
	return c.FallbackAPIURL != "" && c.FallbackAPIKey != ""
}
