package metrics

import (
	"context"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"k8s.io/klog/v2"
)

const (
	envMetricsExporter = "OTEL_METRICS_EXPORTER"
	exportInterval     = 30 * time.Second
)

// otlpOptions returns the meter provider options pushing readings to the configured OTLP
// collector, or nothing when telemetry is disabled or OTEL_METRICS_EXPORTER=none.
func otlpOptions(ctx context.Context, cfg Config) []sdkmetric.Option {
	if cfg.Telemetry == nil || !cfg.Telemetry.IsEnabled() {
		return nil
	}
	if strings.EqualFold(os.Getenv(envMetricsExporter), "none") {
		klog.V(2).Infof("OTLP metrics export disabled via %s=none", envMetricsExporter)
		return nil
	}
	endpoint := cfg.Telemetry.GetEndpoint()
	var exporter sdkmetric.Exporter
	var err error
	switch strings.ToLower(cfg.Telemetry.GetProtocol()) {
	case "http/protobuf", "http":
		exporter, err = otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(endpoint))
	default:
		exporter, err = otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpointURL(endpoint))
	}
	if err != nil {
		klog.Warningf("Failed to create OTLP metrics exporter, OTLP export disabled: %v", err)
		return nil
	}
	opts := []sdkmetric.Option{
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	))
	if err != nil {
		klog.V(1).Infof("Failed to create resource for metrics, using default: %v", err)
	} else {
		opts = append(opts, sdkmetric.WithResource(res))
	}
	klog.V(1).Infof("OTLP metrics export enabled to %s", endpoint)
	return opts
}
