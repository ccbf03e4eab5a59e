// Package session tracks live SSE connections. Each session is 1:1 with
// a network connection, owns a per-connection protocol dispatcher, and
// is bound to the bearer token that opened it. The binding is the
// multi-tenant isolation boundary: messages are only routed to a session
// by the token that created it.
package session
