// Package logging provides structured logging utilities for the flowgate gateway.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Consistent attribute naming across the codebase
//   - Sanitizers for bearer secrets so tokens never reach log files
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithComponent(slog.Default(), "session")
//	logger.Info("session created", logging.SessionID(id))
//
// Sanitize sensitive data before logging:
//
//	logger.Debug("token presented", "token", logging.SanitizeToken(tok))
package logging
