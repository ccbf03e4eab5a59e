// Package server wires the gateway's HTTP surface: the OAuth endpoints,
// the MCP session transport, the admin API for host credentials, health
// probes, and the dedicated metrics listener.
package server
