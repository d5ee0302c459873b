// Package metrics records tool calls, MCP HTTP requests and NetBox API requests with the
// OpenTelemetry metrics SDK. Readings are served as JSON on /stats, in Prometheus format on
// /metrics and, when telemetry is configured, pushed to an OTLP collector.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/config"
)

// Instrument names, the Prometheus exporter replaces the dots with underscores.
const (
	toolCalls      = "netbox_mcp.tool.calls"
	toolErrors     = "netbox_mcp.tool.errors"
	toolDuration   = "netbox_mcp.tool.duration"
	httpRequests   = "netbox_mcp.http.requests"
	serverInfo     = "netbox_mcp.server.info"
	netboxRequests = "netbox_mcp.netbox.requests"
	netboxErrors   = "netbox_mcp.netbox.errors"
	netboxDuration = "netbox_mcp.netbox.duration"
)

const (
	attrToolName    = "tool.name"
	attrMethod      = "http.request.method"
	attrPath        = "url.path"
	attrStatusClass = "http.response.status_class"
)

type Config struct {
	MeterName      string
	ServiceName    string
	ServiceVersion string
	// Telemetry enables the OTLP push exporter, nil keeps the readings local.
	Telemetry *config.TelemetryConfig
}

// Metrics owns the meter provider and its instruments.
type Metrics struct {
	toolCalls      metric.Int64Counter
	toolErrors     metric.Int64Counter
	toolDuration   metric.Float64Histogram
	httpRequests   metric.Int64Counter
	netboxRequests metric.Int64Counter
	netboxErrors   metric.Int64Counter
	netboxDuration metric.Float64Histogram

	provider   *sdkmetric.MeterProvider
	reader     *sdkmetric.ManualReader
	prometheus http.Handler
	startTime  time.Time
}

func New(cfg Config) (*Metrics, error) {
	registry := promclient.NewRegistry()
	promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	m := &Metrics{
		reader:     sdkmetric.NewManualReader(),
		prometheus: promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true}),
		startTime:  time.Now(),
	}
	opts := []sdkmetric.Option{sdkmetric.WithReader(m.reader), sdkmetric.WithReader(promExporter)}
	opts = append(opts, otlpOptions(context.Background(), cfg)...)
	m.provider = sdkmetric.NewMeterProvider(opts...)

	if err = m.createInstruments(m.provider.Meter(cfg.MeterName), cfg.ServiceVersion); err != nil {
		_ = m.provider.Shutdown(context.Background())
		return nil, err
	}
	klog.V(1).Info("Metrics enabled")
	return m, nil
}

func (m *Metrics) createInstruments(meter metric.Meter, serviceVersion string) error {
	counters := []struct {
		target      *metric.Int64Counter
		name, about string
	}{
		{&m.toolCalls, toolCalls, "Total number of MCP tool calls"},
		{&m.toolErrors, toolErrors, "Total number of MCP tool call errors"},
		{&m.httpRequests, httpRequests, "Total number of HTTP requests to the MCP server"},
		{&m.netboxRequests, netboxRequests, "Total number of requests sent to the NetBox API"},
		{&m.netboxErrors, netboxErrors, "Total number of NetBox API requests that failed or returned a non-2xx status"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.about))
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.target = counter
	}
	histograms := []struct {
		target      *metric.Float64Histogram
		name, about string
	}{
		{&m.toolDuration, toolDuration, "Duration of MCP tool calls in seconds"},
		{&m.netboxDuration, netboxDuration, "Duration of NetBox API requests in seconds"},
	}
	for _, h := range histograms {
		histogram, err := meter.Float64Histogram(h.name, metric.WithDescription(h.about), metric.WithUnit("s"))
		if err != nil {
			return fmt.Errorf("failed to create %s histogram: %w", h.name, err)
		}
		*h.target = histogram
	}
	info, err := meter.Int64Gauge(serverInfo, metric.WithDescription("NetBox MCP server version information"))
	if err != nil {
		return fmt.Errorf("failed to create %s gauge: %w", serverInfo, err)
	}
	info.Record(context.Background(), 1, metric.WithAttributes(
		attribute.String("version", serviceVersion),
		attribute.String("go_version", runtime.Version()),
	))
	return nil
}

func (m *Metrics) RecordToolCall(ctx context.Context, name string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String(attrToolName, name))
	m.toolCalls.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.toolErrors.Add(ctx, 1, attrs)
	}
}

// RecordHTTPRequest counts a request to the MCP server, path should be a route to keep cardinality low.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, _ time.Duration) {
	m.httpRequests.Add(ctx, 1, requestAttributes(method, path, statusCode))
}

func (m *Metrics) RecordNetBoxRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	attrs := requestAttributes(method, path, statusCode)
	m.netboxRequests.Add(ctx, 1, attrs)
	m.netboxDuration.Record(ctx, duration.Seconds(), attrs)
	if statusCode < 200 || statusCode >= 300 {
		m.netboxErrors.Add(ctx, 1, attrs)
	}
}

func requestAttributes(method, path string, statusCode int) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatusClass, statusClass(statusCode)),
	)
}

func statusClass(statusCode int) string {
	if statusCode < 100 || statusCode >= 600 {
		return "other"
	}
	return fmt.Sprintf("%dxx", statusCode/100)
}

// PrometheusHandler serves the readings in the Prometheus text and OpenMetrics formats.
func (m *Metrics) PrometheusHandler() http.Handler {
	return m.prometheus
}

// Shutdown flushes pending OTLP exports.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
