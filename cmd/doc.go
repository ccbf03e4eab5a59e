// Package cmd implements the command-line interface for flowgate.
//
// This package provides the following commands:
//   - serve: Start the MCP gateway and its OAuth authorization server
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
