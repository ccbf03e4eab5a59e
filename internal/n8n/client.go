package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	apiPrefix = "/api/v1"

	// apiKeyHeader carries the instance credential on every request.
	apiKeyHeader = "X-N8N-API-KEY"

	defaultTimeout = 30 * time.Second
)

// Client talks to one n8n instance. A client is scoped to a single
// host's credentials and is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) { c.httpc = httpc }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey cannot be empty")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Ping performs a lightweight reachability and credential check.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/workflows", url.Values{"limit": {"1"}}, nil, "ping")
	return err
}

// do issues one API request and returns the raw response body. Non-2xx
// responses become ToolErrors carrying the backend status and message.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, tool string) (json.RawMessage, error) {
	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ToolError{Tool: tool, Message: fmt.Sprintf("encoding request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, &ToolError{Tool: tool, Message: fmt.Sprintf("building request: %v", err)}
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &ToolError{Tool: tool, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, &ToolError{Tool: tool, Status: resp.StatusCode, Message: fmt.Sprintf("reading response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Message != "" {
			msg = ae.Message
		}
		return nil, &ToolError{Tool: tool, Status: resp.StatusCode, Message: msg}
	}

	if len(data) == 0 {
		data = []byte(`{}`)
	}

	return json.RawMessage(data), nil
}

// toolArgs is the decoded argument set shared by all catalog tools.
// Unknown fields are ignored so schema evolution stays backward
// compatible.
type toolArgs struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Active      *bool           `json:"active"`
	Limit       int             `json:"limit"`
	WorkflowID  string          `json:"workflowId"`
	Status      string          `json:"status"`
	Nodes       json.RawMessage `json:"nodes"`
	Connections json.RawMessage `json:"connections"`
	Settings    json.RawMessage `json:"settings"`
}

// CallTool dispatches a catalog tool invocation to the REST API and
// returns the raw backend result.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	var a toolArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, &ToolError{Tool: name, Message: fmt.Sprintf("invalid arguments: %v", err)}
		}
	}

	requireID := func() error {
		if a.ID == "" {
			return &ToolError{Tool: name, Message: "id is required"}
		}
		return nil
	}

	switch name {
	case "list_workflows":
		q := url.Values{}
		if a.Active != nil {
			q.Set("active", strconv.FormatBool(*a.Active))
		}
		if a.Limit > 0 {
			q.Set("limit", strconv.Itoa(a.Limit))
		}
		return c.do(ctx, http.MethodGet, "/workflows", q, nil, name)

	case "get_workflow":
		if err := requireID(); err != nil {
			return nil, err
		}
		return c.do(ctx, http.MethodGet, "/workflows/"+url.PathEscape(a.ID), nil, nil, name)

	case "create_workflow":
		if a.Name == "" {
			return nil, &ToolError{Tool: name, Message: "name is required"}
		}
		return c.do(ctx, http.MethodPost, "/workflows", nil, workflowBody(a), name)

	case "update_workflow":
		if err := requireID(); err != nil {
			return nil, err
		}
		return c.do(ctx, http.MethodPut, "/workflows/"+url.PathEscape(a.ID), nil, workflowBody(a), name)

	case "delete_workflow":
		if err := requireID(); err != nil {
			return nil, err
		}
		return c.do(ctx, http.MethodDelete, "/workflows/"+url.PathEscape(a.ID), nil, nil, name)

	case "activate_workflow":
		if err := requireID(); err != nil {
			return nil, err
		}
		return c.do(ctx, http.MethodPost, "/workflows/"+url.PathEscape(a.ID)+"/activate", nil, nil, name)

	case "deactivate_workflow":
		if err := requireID(); err != nil {
			return nil, err
		}
		return c.do(ctx, http.MethodPost, "/workflows/"+url.PathEscape(a.ID)+"/deactivate", nil, nil, name)

	case "list_executions":
		q := url.Values{}
		if a.WorkflowID != "" {
			q.Set("workflowId", a.WorkflowID)
		}
		if a.Status != "" {
			q.Set("status", a.Status)
		}
		if a.Limit > 0 {
			q.Set("limit", strconv.Itoa(a.Limit))
		}
		return c.do(ctx, http.MethodGet, "/executions", q, nil, name)

	case "get_execution":
		if err := requireID(); err != nil {
			return nil, err
		}
		return c.do(ctx, http.MethodGet, "/executions/"+url.PathEscape(a.ID), nil, nil, name)

	default:
		return nil, &ToolError{Tool: name, Message: "unknown tool"}
	}
}

// workflowBody assembles the create/update request body, defaulting the
// structural fields the API requires to be present.
func workflowBody(a toolArgs) map[string]any {
	body := map[string]any{
		"name":        a.Name,
		"nodes":       json.RawMessage(`[]`),
		"connections": json.RawMessage(`{}`),
		"settings":    json.RawMessage(`{}`),
	}
	if len(a.Nodes) > 0 {
		body["nodes"] = a.Nodes
	}
	if len(a.Connections) > 0 {
		body["connections"] = a.Connections
	}
	if len(a.Settings) > 0 {
		body["settings"] = a.Settings
	}
	return body
}

// Prober adapts the client's health check to the credential store's
// connectivity test. A fresh client is built per probe since the
// candidate host is not registered yet.
type Prober struct {
	// Timeout bounds a single probe. Zero means defaultTimeout.
	Timeout time.Duration
}

// Probe implements hosts.Prober.
func (p *Prober) Probe(ctx context.Context, baseURL, apiKey string) error {
	c, err := NewClient(baseURL, apiKey)
	if err != nil {
		return err
	}
	if p.Timeout > 0 {
		c.httpc = &http.Client{Timeout: p.Timeout}
	}
	return c.Ping(ctx)
}
