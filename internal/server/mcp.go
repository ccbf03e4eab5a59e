package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/flowgate/flowgate/internal/bridge"
	"github.com/flowgate/flowgate/internal/hosts"
	"github.com/flowgate/flowgate/internal/logging"
	"github.com/flowgate/flowgate/internal/oauth"
	"github.com/flowgate/flowgate/internal/session"
)

const sessionIDHeader = "X-Session-ID"

// connectedEvent is the first frame sent on a new SSE stream.
type connectedEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// resolveHost picks the workflow host for a request: an explicit
// host_id query parameter wins, then the host bound to the token, then
// the store default, then the environment fallback.
func (g *Gateway) resolveHost(r *http.Request, token *oauth.AccessToken) (hosts.Entry, bool) {
	explicit := r.URL.Query().Get("host_id")
	if explicit == "" {
		explicit = r.URL.Query().Get("hostId")
	}
	tokenHost := ""
	if token != nil {
		tokenHost = token.HostID
	}
	return hosts.Resolve(g.store, explicit, tokenHost, g.cfg.Fallback)
}

// handleSSE opens the event stream for a new MCP session. The stream
// stays open until the client disconnects, the session is deleted, or a
// write fails.
func (g *Gateway) handleSSE(w http.ResponseWriter, r *http.Request) {
	token, ok := oauth.TokenFromContext(r.Context())
	if !ok {
		oauth.WriteError(w, oauth.ErrInvalidToken("missing token context"))
		return
	}

	host, ok := g.resolveHost(r, token)
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "host_not_configured",
		})
		return
	}

	opts := []bridge.Option{
		bridge.WithLogger(logging.WithComponent(g.logger, "bridge")),
	}
	if g.metrics != nil {
		opts = append(opts, bridge.WithMetrics(g.metrics))
	}
	br, err := bridge.New(host, g.cfg.Version, opts...)
	if err != nil {
		g.logger.Error("bridge setup failed", logging.HostID(host.ID), logging.Err(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "host_not_configured",
		})
		return
	}

	transport, err := session.NewSSETransport(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "streaming_unsupported",
		})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	rec := g.registry.Create(transport, br, token.Token, cancel)
	id := rec.ID
	defer g.registry.Remove(id)

	w.Header().Set(sessionIDHeader, id)

	hello, _ := json.Marshal(connectedEvent{Type: "connected", SessionID: id})
	if err := transport.Send("connected", hello); err != nil {
		return
	}
	g.logger.Info("session opened", logging.SessionID(id), logging.HostID(host.ID))

	ticker := time.NewTicker(g.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			g.logger.Info("session closed", logging.SessionID(id))
			return
		case <-ticker.C:
			if err := transport.Send("ping", []byte("{}")); err != nil {
				g.logger.Info("session closed", logging.SessionID(id), logging.Err(err))
				return
			}
		}
	}
}

// handleMessage routes a client JSON-RPC message to the session's
// bridge. Responses travel back over the SSE stream, so a successful
// dispatch only acknowledges receipt here.
func (g *Gateway) handleMessage(w http.ResponseWriter, r *http.Request) {
	token, ok := oauth.TokenFromContext(r.Context())
	if !ok {
		oauth.WriteError(w, oauth.ErrInvalidToken("missing token context"))
		return
	}

	id := r.Header.Get(sessionIDHeader)
	if id == "" {
		id = r.URL.Query().Get("sessionId")
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "missing_session_id",
		})
		return
	}

	msg, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid_body",
		})
		return
	}

	switch err := g.registry.RoutePost(r.Context(), id, token.Token, msg); {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	case errors.Is(err, session.ErrUnknownSession):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown_session"})
	case errors.Is(err, session.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		g.logger.Error("message dispatch failed", logging.SessionID(id), logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
	}
}

// handleSessionDelete tears down a session. Deleting an absent session
// succeeds so clients can retry safely.
func (g *Gateway) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	token, ok := oauth.TokenFromContext(r.Context())
	if !ok {
		oauth.WriteError(w, oauth.ErrInvalidToken("missing token context"))
		return
	}

	id := r.Header.Get(sessionIDHeader)
	if id == "" {
		id = r.URL.Query().Get("sessionId")
	}
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "missing_session_id",
		})
		return
	}

	rec, ok := g.registry.Lookup(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if rec.BoundToken != token.Token {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
		return
	}
	g.registry.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}
