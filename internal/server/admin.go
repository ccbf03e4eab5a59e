package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flowgate/flowgate/internal/hosts"
	"github.com/flowgate/flowgate/internal/logging"
)

type hostView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`
}

type hostsListResponse struct {
	Hosts         []hostView `json:"hosts"`
	DefaultHostID string     `json:"defaultHostId,omitempty"`
}

type hostAddRequest struct {
	Name    string `json:"name"`
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
}

type hostTestRequest struct {
	BaseURL string `json:"baseUrl"`
	APIKey  string `json:"apiKey"`
}

type hostTestResponse struct {
	Reachable  bool   `json:"reachable"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// handleHostsList returns all configured hosts. API keys never leave
// the store.
func (g *Gateway) handleHostsList(w http.ResponseWriter, r *http.Request) {
	entries := g.store.List()
	views := make([]hostView, 0, len(entries))
	for _, e := range entries {
		views = append(views, hostView{ID: e.ID, Name: e.Name, BaseURL: e.BaseURL})
	}
	writeJSON(w, http.StatusOK, hostsListResponse{
		Hosts:         views,
		DefaultHostID: g.store.DefaultHostID(),
	})
}

func (g *Gateway) handleHostsAdd(w http.ResponseWriter, r *http.Request) {
	var req hostAddRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	id, err := g.store.Add(req.Name, req.BaseURL, req.APIKey)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	g.logger.Info("host added", logging.HostID(id))
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (g *Gateway) handleHostsDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := g.store.Remove(id); err != nil {
		if errors.Is(err, hosts.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown_host"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		return
	}
	g.logger.Info("host removed", logging.HostID(id))
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleHostsSetDefault(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := g.store.SetDefault(id); err != nil {
		if errors.Is(err, hosts.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown_host"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"defaultHostId": id})
}

// handleHostsTest probes connectivity for credentials that are not yet
// saved, so the admin UI can validate before adding.
func (g *Gateway) handleHostsTest(w http.ResponseWriter, r *http.Request) {
	var req hostTestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	reachable, diag := g.store.TestConnectivity(r.Context(), req.BaseURL, req.APIKey)
	writeJSON(w, http.StatusOK, hostTestResponse{Reachable: reachable, Diagnostic: diag})
}

func (g *Gateway) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(adminPage))
}

const adminPage = `<!DOCTYPE html>
<html>
<head><title>flowgate admin</title></head>
<body>
<h1>flowgate</h1>
<p>Manage workflow hosts via <code>/admin/api/hosts</code>.</p>
</body>
</html>
`
