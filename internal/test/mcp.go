package test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type McpClient struct {
	ctx        context.Context
	testServer *httptest.Server
	*mcp.ClientSession
}

type mcpClientOptions struct {
	headers       map[string]string
	clientOptions *mcp.ClientOptions
}

type McpClientOption func(*mcpClientOptions)

// WithHeaders sets headers on every HTTP request performed by the client.
func WithHeaders(headers map[string]string) McpClientOption {
	return func(o *mcpClientOptions) {
		o.headers = headers
	}
}

// WithClientOptions sets the go-sdk client options, e.g. notification handlers.
func WithClientOptions(clientOptions *mcp.ClientOptions) McpClientOption {
	return func(o *mcpClientOptions) {
		o.clientOptions = clientOptions
	}
}

type headerRoundTripper struct {
	headers map[string]string
	next    http.RoundTripper
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return h.next.RoundTrip(req)
}

func newClient(o *mcpClientOptions) *mcp.Client {
	return mcp.NewClient(&mcp.Implementation{Name: "test", Version: "1.33.7"}, o.clientOptions)
}

// NewMcpClient connects a streamable HTTP client to the provided MCP handler served at /mcp.
func NewMcpClient(t *testing.T, mcpHttpServer http.Handler, options ...McpClientOption) *McpClient {
	require.NotNil(t, mcpHttpServer, "McpHttpServer must be provided")
	o := &mcpClientOptions{}
	for _, opt := range options {
		opt(o)
	}
	ret := &McpClient{ctx: t.Context()}
	ret.testServer = httptest.NewServer(mcpHttpServer)
	transport := &mcp.StreamableClientTransport{
		Endpoint:   ret.testServer.URL + "/mcp",
		HTTPClient: &http.Client{Transport: &headerRoundTripper{headers: o.headers, next: http.DefaultTransport}},
		MaxRetries: -1,
	}
	var err error
	ret.ClientSession, err = newClient(o).Connect(t.Context(), transport, nil)
	require.NoError(t, err, "Expected no error connecting MCP client")
	return ret
}

// McpServerConnector serves a single MCP session over a transport.
type McpServerConnector interface {
	Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error)
}

// NewInMemoryMcpClient connects a client to the server through in-memory transports.
func NewInMemoryMcpClient(t *testing.T, server McpServerConnector, options ...McpClientOption) *McpClient {
	require.NotNil(t, server, "server must be provided")
	o := &mcpClientOptions{}
	for _, opt := range options {
		opt(o)
	}
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err := server.Connect(t.Context(), serverTransport)
	require.NoError(t, err, "Expected no error connecting MCP server")
	ret := &McpClient{ctx: t.Context()}
	ret.ClientSession, err = newClient(o).Connect(t.Context(), clientTransport, nil)
	require.NoError(t, err, "Expected no error connecting MCP client")
	return ret
}

func (m *McpClient) Close() {
	if m.ClientSession != nil {
		_ = m.ClientSession.Close()
	}
	if m.testServer != nil {
		m.testServer.Close()
	}
}

// CallTool helper function to call a tool by name with arguments
func (m *McpClient) CallTool(name string, args map[string]any) (*mcp.CallToolResult, error) {
	return m.ClientSession.CallTool(m.ctx, &mcp.CallToolParams{Name: name, Arguments: args})
}

// ListTools returns every tool exposed by the server.
func (m *McpClient) ListTools() (*mcp.ListToolsResult, error) {
	return m.ClientSession.ListTools(m.ctx, &mcp.ListToolsParams{})
}

// ListPrompts returns every prompt exposed by the server.
func (m *McpClient) ListPrompts() (*mcp.ListPromptsResult, error) {
	return m.ClientSession.ListPrompts(m.ctx, &mcp.ListPromptsParams{})
}

// GetPrompt renders the named prompt.
func (m *McpClient) GetPrompt(name string, args map[string]string) (*mcp.GetPromptResult, error) {
	return m.ClientSession.GetPrompt(m.ctx, &mcp.GetPromptParams{Name: name, Arguments: args})
}
