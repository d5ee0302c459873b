package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/config"
	"github.com/netbox-community/netbox-mcp-server/pkg/mcp"
)

const (
	healthEndpoint     = "/healthz"
	statsEndpoint      = "/stats"
	metricsEndpoint    = "/metrics"
	mcpEndpoint        = "/mcp"
	sseEndpoint        = "/sse"
	sseMessageEndpoint = "/message"

	shutdownTimeout = 10 * time.Second
)

// Handler returns the HTTP handler serving the MCP transports together with the
// health, stats and Prometheus endpoints.
func Handler(mcpServer *mcp.Server) http.Handler {
	mux := http.NewServeMux()
	sse := mcpServer.ServeSse()
	mux.Handle(mcpEndpoint, mcpServer.ServeHTTP())
	mux.Handle(sseEndpoint, sse)
	mux.Handle(sseMessageEndpoint, sse)
	mux.HandleFunc(healthEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(statsEndpoint, statsHandler(mcpServer))
	mux.Handle(metricsEndpoint, mcpServer.GetMetrics().PrometheusHandler())
	return RequestMiddleware(mux, mcpServer.GetMetrics())
}

// statsHandler serves the in-memory tool call and request counters as JSON.
func statsHandler(mcpServer *mcp.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := json.Marshal(mcpServer.GetMetrics().GetStats())
		if err != nil {
			klog.V(1).Infof("Failed to encode stats response: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

// Serve exposes the MCP server over Streamable HTTP and SSE until ctx is cancelled or a termination signal arrives.
func Serve(ctx context.Context, mcpServer *mcp.Server, staticConfig *config.StaticConfig) error {
	httpServer := &http.Server{
		Addr:    ":" + staticConfig.Port,
		Handler: Handler(mcpServer),
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		klog.V(0).Infof("HTTP server starting on port %s (endpoints: %s, %s, %s, %s, %s, %s)", staticConfig.Port,
			mcpEndpoint, sseEndpoint, sseMessageEndpoint, healthEndpoint, statsEndpoint, metricsEndpoint)
		if staticConfig.SSEBaseURL != "" {
			klog.V(1).Infof("SSE clients reach this server through %s%s", staticConfig.SSEBaseURL, sseEndpoint)
		}
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-signalCtx.Done():
		if ctx.Err() != nil {
			klog.V(0).Infof("Context cancelled, initiating graceful shutdown")
		} else {
			klog.V(0).Infof("Received termination signal, initiating graceful shutdown")
		}
	case err := <-serverErr:
		klog.Errorf("HTTP server error: %v", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	klog.V(0).Infof("Shutting down HTTP server gracefully...")
	// The MCP server is shut down even when the HTTP server fails to drain, it flushes metrics.
	httpErr := httpServer.Shutdown(shutdownCtx)
	if httpErr != nil {
		klog.Errorf("HTTP server shutdown error: %v", httpErr)
	}
	mcpErr := mcpServer.Shutdown(shutdownCtx)
	if mcpErr != nil {
		klog.Errorf("MCP server shutdown error: %v", mcpErr)
	}
	if err := errors.Join(httpErr, mcpErr); err != nil {
		return err
	}
	klog.V(0).Infof("HTTP server shutdown complete")
	return nil
}
