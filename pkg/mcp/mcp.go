package mcp

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/config"
	"github.com/netbox-community/netbox-mcp-server/pkg/metrics"
	"github.com/netbox-community/netbox-mcp-server/pkg/netbox"
	"github.com/netbox-community/netbox-mcp-server/pkg/version"
)

type Server struct {
	server         *mcp.Server
	enabledTools   []string
	enabledPrompts []string
	metrics        *metrics.Metrics

	mu sync.RWMutex
	// configuration is replaced as a whole on reload and never modified in place
	configuration *Configuration
	// client is rebuilt from the configuration on reload unless it was injected
	client         api.NetBoxClient
	injectedClient bool
}

type ServerOption func(s *Server)

// WithNetBoxClient makes the server use the provided client instead of building one from the configuration.
func WithNetBoxClient(client api.NetBoxClient) ServerOption {
	return func(s *Server) {
		s.client = client
		s.injectedClient = client != nil
	}
}

func NewServer(configuration Configuration, opts ...ServerOption) (*Server, error) {
	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	implementation := &mcp.Implementation{
		Name:       version.BinaryName,
		Title:      version.BinaryName,
		Version:    version.Version,
		WebsiteURL: version.WebsiteURL,
	}
	listChanged := !configuration.Stateless
	s := &Server{
		configuration: configuration.resolved(),
		server: mcp.NewServer(implementation, &mcp.ServerOptions{
			Capabilities: &mcp.ServerCapabilities{
				Prompts: &mcp.PromptCapabilities{ListChanged: listChanged},
				Tools:   &mcp.ToolCapabilities{ListChanged: listChanged},
				Logging: &mcp.LoggingCapabilities{},
			},
			Instructions: configuration.ServerInstructions,
		}),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	s.metrics, err = metrics.New(metrics.Config{
		MeterName:      version.BinaryName + "/mcp",
		ServiceName:    version.BinaryName,
		ServiceVersion: version.Version,
		Telemetry:      &configuration.Telemetry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if !s.injectedClient {
		if s.client, err = s.newNetBoxClient(configuration.StaticConfig); err != nil {
			return nil, err
		}
	}

	for _, middleware := range []func(mcp.MethodHandler) mcp.MethodHandler{
		sessionInjectionMiddleware,
		traceContextPropagationMiddleware,
		tracingMiddleware(version.BinaryName + "/mcp"),
		toolCallLoggingMiddleware,
		metricsMiddleware(s.metrics),
	} {
		s.server.AddReceivingMiddleware(middleware)
	}
	if err = s.reloadToolsets(); err != nil {
		return nil, err
	}
	return s, nil
}

// newNetBoxClient builds the REST client for the NetBox settings of cfg, reporting every request to the metrics.
func (s *Server) newNetBoxClient(cfg *config.StaticConfig) (*netbox.RestClient, error) {
	opts, err := cfg.NetBox.ClientOptions(cfg.ConfigDirPath())
	if err != nil {
		return nil, err
	}
	client, err := netbox.NewRestClient(opts, netbox.WithRequestObserver(s.metrics.RecordNetBoxRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create NetBox client: %w", err)
	}
	klog.V(1).Infof("NetBox client configured for %s", opts.URL)
	return client, nil
}

func (s *Server) currentConfiguration() *Configuration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configuration
}

// NetBoxClient returns the client used by tool and prompt handlers.
func (s *Server) NetBoxClient() api.NetBoxClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// GetMetrics returns the metrics system for use by the HTTP server.
func (s *Server) GetMetrics() *metrics.Metrics {
	return s.metrics
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.LoggingTransport{Transport: &mcp.StdioTransport{}, Writer: os.Stderr})
}

// Connect serves a single session over the provided transport, used for in-process clients.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

func (s *Server) ServeSse() *mcp.SSEHandler {
	return mcp.NewSSEHandler(s.getServer, &mcp.SSEOptions{})
}

func (s *Server) ServeHTTP() *mcp.StreamableHTTPHandler {
	return mcp.NewStreamableHTTPHandler(s.getServer, &mcp.StreamableHTTPOptions{
		// Stateless servers do not send tools/list_changed or prompts/list_changed notifications.
		Stateless: s.currentConfiguration().Stateless,
	})
}

func (s *Server) getServer(*http.Request) *mcp.Server {
	return s.server
}

func (s *Server) GetEnabledTools() []string {
	return s.enabledTools
}

func (s *Server) GetEnabledPrompts() []string {
	return s.enabledPrompts
}

// Shutdown flushes pending metrics.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.metrics == nil {
		return nil
	}
	if err := s.metrics.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown metrics: %w", err)
	}
	return nil
}
