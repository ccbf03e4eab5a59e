package n8n

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", "key")
	assert.ErrorContains(t, err, "baseURL")

	_, err = NewClient("https://n8n.example.com", "")
	assert.ErrorContains(t, err, "apiKey")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-key", r.Header.Get("X-N8N-API-KEY"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key")
	require.NoError(t, err)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestPingBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "unauthorized"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "wrong-key")
	require.NoError(t, err)

	err = c.Ping(context.Background())
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.Status)
	assert.Equal(t, "unauthorized", te.Message)
}

func TestCallToolRouting(t *testing.T) {
	type seen struct {
		method string
		path   string
		query  string
	}
	var got seen

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = seen{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "key")
	require.NoError(t, err)

	tests := []struct {
		tool string
		args string
		want seen
	}{
		{"list_workflows", `{"active": true, "limit": 5}`, seen{"GET", "/api/v1/workflows", "active=true&limit=5"}},
		{"get_workflow", `{"id": "w1"}`, seen{"GET", "/api/v1/workflows/w1", ""}},
		{"create_workflow", `{"name": "nightly sync"}`, seen{"POST", "/api/v1/workflows", ""}},
		{"update_workflow", `{"id": "w1", "name": "renamed"}`, seen{"PUT", "/api/v1/workflows/w1", ""}},
		{"delete_workflow", `{"id": "w1"}`, seen{"DELETE", "/api/v1/workflows/w1", ""}},
		{"activate_workflow", `{"id": "w1"}`, seen{"POST", "/api/v1/workflows/w1/activate", ""}},
		{"deactivate_workflow", `{"id": "w1"}`, seen{"POST", "/api/v1/workflows/w1/deactivate", ""}},
		{"list_executions", `{"workflowId": "w1", "status": "error"}`, seen{"GET", "/api/v1/executions", "status=error&workflowId=w1"}},
		{"get_execution", `{"id": "e1"}`, seen{"GET", "/api/v1/executions/e1", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			result, err := c.CallTool(context.Background(), tt.tool, json.RawMessage(tt.args))
			require.NoError(t, err)
			assert.JSONEq(t, `{"ok": true}`, string(result))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallToolUnknown(t *testing.T) {
	c, err := NewClient("https://n8n.example.com", "key")
	require.NoError(t, err)

	_, err = c.CallTool(context.Background(), "explode", nil)
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Error(), "unknown tool")
}

func TestCallToolMissingRequiredArgs(t *testing.T) {
	c, err := NewClient("https://n8n.example.com", "key")
	require.NoError(t, err)

	for _, tool := range []string{"get_workflow", "delete_workflow", "activate_workflow", "get_execution"} {
		_, err := c.CallTool(context.Background(), tool, json.RawMessage(`{}`))
		var te *ToolError
		require.ErrorAs(t, err, &te, tool)
		assert.Contains(t, te.Message, "id is required")
	}

	_, err = c.CallTool(context.Background(), "create_workflow", json.RawMessage(`{}`))
	assert.ErrorContains(t, err, "name is required")
}

func TestCallToolBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "workflow not found"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "key")
	require.NoError(t, err)

	_, err = c.CallTool(context.Background(), "get_workflow", json.RawMessage(`{"id": "missing"}`))
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.Status)
	assert.Equal(t, "workflow not found", te.Message)
	assert.Equal(t, "get_workflow", te.Tool)
}

func TestCreateWorkflowDefaultsStructure(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id": "new"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "key")
	require.NoError(t, err)

	_, err = c.CallTool(context.Background(), "create_workflow", json.RawMessage(`{"name": "minimal"}`))
	require.NoError(t, err)

	assert.JSONEq(t, `"minimal"`, string(body["name"]))
	assert.JSONEq(t, `[]`, string(body["nodes"]))
	assert.JSONEq(t, `{}`, string(body["connections"]))
}

func TestProber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-N8N-API-KEY") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	p := &Prober{}
	assert.NoError(t, p.Probe(context.Background(), srv.URL, "good"))
	assert.Error(t, p.Probe(context.Background(), srv.URL, "bad"))
}

func TestToolsCatalog(t *testing.T) {
	tools := Tools()
	require.NotEmpty(t, tools)

	names := make(map[string]struct{})
	for _, tool := range tools {
		_, dup := names[tool.Name]
		require.False(t, dup, "duplicate tool %s", tool.Name)
		names[tool.Name] = struct{}{}

		require.NotEmpty(t, tool.Description)

		// Every schema must be valid JSON describing an object.
		var schema map[string]any
		require.NoError(t, json.Unmarshal(tool.InputSchema, &schema), tool.Name)
		assert.Equal(t, "object", schema["type"], tool.Name)
	}

	// Every cataloged tool must be dispatchable. A client pointed at a
	// dead address fails with a transport error, never "unknown tool".
	c, err := NewClient("http://127.0.0.1:0", "key")
	require.NoError(t, err)
	for name := range names {
		_, err := c.CallTool(context.Background(), name, json.RawMessage(`{"id": "x", "name": "x"}`))
		var te *ToolError
		require.ErrorAs(t, err, &te, name)
		assert.NotContains(t, te.Message, "unknown tool", name)
	}
}
