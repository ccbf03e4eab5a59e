// Package oauth implements the embedded OAuth 2.1 authorization server
// that gates the MCP endpoints.
//
// The server supports a single flow: authorization code with mandatory
// PKCE (S256 only). There is no upstream identity provider; the operator
// authenticates with the configured admin credentials, and a successful
// login doubles as the consent step. Codes and tokens live in memory and
// do not survive a restart.
package oauth
