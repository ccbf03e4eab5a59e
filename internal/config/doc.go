// Package config loads environment-based configuration for the flowgate
// gateway. A .env file is honored when present; explicit environment
// variables always win. Values surfaced as serve-command flags override
// both.
package config
