// Package bridge builds the per-connection protocol server. Each SSE
// connection gets its own MCP server wired to a backend client scoped to
// the connection's resolved host, so tool calls from different sessions
// can never cross tenant boundaries.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/flowgate/flowgate/internal/hosts"
	"github.com/flowgate/flowgate/internal/logging"
	"github.com/flowgate/flowgate/internal/n8n"
)

const serverName = "flowgate"

// Backend is the collaborator contract the bridge needs from the
// workflow adapter.
type Backend interface {
	CallTool(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error)
}

// Metrics receives tool invocation outcomes. Implementations must be
// safe for concurrent use.
type Metrics interface {
	ToolCall(tool string, duration time.Duration, err error)
}

// Bridge exposes the backend's tool catalog over the MCP protocol and
// dispatches raw JSON-RPC messages to it.
type Bridge struct {
	srv     *mcpserver.MCPServer
	logger  *slog.Logger
	metrics Metrics
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// WithMetrics sets the tool call metrics sink.
func WithMetrics(m Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// New builds a bridge for a resolved host. An incomplete host is a hard
// error: the connection must be rejected rather than silently served by
// a different backend.
func New(host hosts.Entry, version string, opts ...Option) (*Bridge, error) {
	if !host.Complete() {
		return nil, fmt.Errorf("host %q is missing base URL or API key", host.ID)
	}

	client, err := n8n.NewClient(host.BaseURL, host.APIKey)
	if err != nil {
		return nil, fmt.Errorf("building backend client: %w", err)
	}

	return NewWithBackend(client, version, opts...), nil
}

// NewWithBackend builds a bridge over an explicit backend.
func NewWithBackend(backend Backend, version string, opts ...Option) *Bridge {
	b := &Bridge{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	srv := mcpserver.NewMCPServer(
		serverName,
		version,
		mcpserver.WithToolCapabilities(false),
	)

	for _, def := range n8n.Tools() {
		tool := mcp.NewToolWithRawSchema(def.Name, def.Description, def.InputSchema)
		srv.AddTool(tool, b.toolHandler(backend, def.Name))
	}

	b.srv = srv
	return b
}

// toolHandler adapts one catalog entry to an MCP tool handler. Backend
// failures surface as tool results, not protocol errors, so the client
// can present them to the model.
func (b *Bridge) toolHandler(backend Backend, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		start := time.Now()
		result, err := backend.CallTool(ctx, name, args)
		if b.metrics != nil {
			b.metrics.ToolCall(name, time.Since(start), err)
		}
		if err != nil {
			b.logger.Warn("tool call failed", logging.Tool(name), logging.Err(err))
			return mcp.NewToolResultError(err.Error()), nil
		}

		b.logger.Debug("tool call completed", logging.Tool(name), logging.Status(logging.StatusSuccess))
		return mcp.NewToolResultText(string(result)), nil
	}
}

// Dispatch handles one raw JSON-RPC message and returns the encoded
// response. Notifications produce no response; ok is false for them.
// Dispatch implements session.Dispatcher.
func (b *Bridge) Dispatch(ctx context.Context, message json.RawMessage) ([]byte, bool) {
	response := b.srv.HandleMessage(ctx, message)
	if response == nil {
		return nil, false
	}

	data, err := json.Marshal(response)
	if err != nil {
		b.logger.Error("failed to encode response", logging.Err(err))
		return nil, false
	}

	return data, true
}
