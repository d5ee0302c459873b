// Package telemetry installs the OpenTelemetry tracer provider that exports
// the spans of MCP requests, tool calls and NetBox API requests.
package telemetry

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/config"
)

const shutdownTimeout = 5 * time.Second

var tracingEnabled atomic.Bool

// Enabled reports whether a tracer provider is installed, middleware skips span work otherwise.
func Enabled() bool {
	return tracingEnabled.Load()
}

// InitTracer installs the global tracer provider and W3C propagators when cfg enables telemetry.
// The returned shutdown function flushes pending spans and is never nil.
// Exporter setup failures are logged and leave tracing disabled.
func InitTracer(cfg *config.TelemetryConfig, serviceName, serviceVersion string) (func(), error) {
	noop := func() {}
	if cfg == nil || !cfg.IsEnabled() {
		klog.V(2).Info("Telemetry not enabled, tracing disabled")
		return noop, nil
	}
	ctx := context.Background()
	exporter, err := newExporter(ctx, cfg.GetProtocol(), cfg.GetEndpoint())
	if err != nil {
		klog.V(1).Infof("Failed to create OTLP trace exporter, tracing disabled: %v", err)
		return noop, nil
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	))
	if err != nil {
		klog.V(1).Infof("Failed to create telemetry resource, tracing disabled: %v", err)
		return noop, nil
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.GetTracesSampler(), cfg.GetTracesSamplerArg())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	tracingEnabled.Store(true)
	klog.V(1).Infof("OpenTelemetry tracing exporting to %s", cfg.GetEndpoint())

	return func() {
		tracingEnabled.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			klog.Errorf("Failed to shutdown tracer provider: %v", err)
		}
	}, nil
}

// newExporter creates the OTLP exporter for protocol, endpoint must be a URL such as http://collector:4317.
func newExporter(ctx context.Context, protocol, endpoint string) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(protocol) {
	case "http/protobuf", "http":
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	case "grpc", "":
	default:
		klog.V(1).Infof("Unknown OTLP protocol %q, using grpc", protocol)
	}
	return otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(endpoint))
}

// newSampler maps the OTEL_TRACES_SAMPLER names to samplers. Unknown names and
// an empty name use ParentBased(AlwaysSample), invalid ratios use 1.0.
func newSampler(name, arg string) sdktrace.Sampler {
	ratio := 1.0
	if arg != "" {
		if parsed, err := strconv.ParseFloat(arg, 64); err != nil || parsed < 0 || parsed > 1 {
			klog.V(1).Infof("Invalid traces sampler argument %q, using 1.0", arg)
		} else {
			ratio = parsed
		}
	}
	switch name {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(ratio)
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	case "parentbased_always_on", "":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	default:
		klog.V(1).Infof("Unknown traces sampler %q, using parentbased_always_on", name)
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}
