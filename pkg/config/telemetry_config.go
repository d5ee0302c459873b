package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"k8s.io/utils/ptr"
)

const (
	EnvOTLPEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTLPProtocol     = "OTEL_EXPORTER_OTLP_PROTOCOL"
	EnvTracesSampler    = "OTEL_TRACES_SAMPLER"
	EnvTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

var (
	telemetryProtocols = []string{"grpc", "http/protobuf", "http"}
	tracesSamplers     = []string{"always_on", "always_off", "traceidratio", "parentbased_always_on", "parentbased_always_off", "parentbased_traceidratio"}
)

// TelemetryConfig is the [telemetry] table, OTEL_* environment variables win over it.
//
//	[telemetry]
//	endpoint = "http://otel-collector:4317"
//	traces_sampler = "parentbased_traceidratio"
//	traces_sampler_arg = 0.1
type TelemetryConfig struct {
	// Enabled false turns telemetry off even when OTEL_EXPORTER_OTLP_ENDPOINT is set.
	// Unset, telemetry is on whenever an endpoint is available.
	Enabled  *bool  `toml:"enabled,omitempty"`
	Endpoint string `toml:"endpoint,omitempty"`
	// Protocol is grpc (default) or http/protobuf.
	Protocol         string   `toml:"protocol,omitempty"`
	TracesSampler    string   `toml:"traces_sampler,omitempty"`
	TracesSamplerArg *float64 `toml:"traces_sampler_arg,omitempty"`
}

func envOr(name, value string) string {
	if env := os.Getenv(name); env != "" {
		return env
	}
	return value
}

func (c *TelemetryConfig) IsEnabled() bool {
	return ptr.Deref(c.Enabled, true) && c.GetEndpoint() != ""
}

func (c *TelemetryConfig) GetEndpoint() string {
	return envOr(EnvOTLPEndpoint, c.Endpoint)
}

func (c *TelemetryConfig) GetProtocol() string {
	return envOr(EnvOTLPProtocol, c.Protocol)
}

func (c *TelemetryConfig) GetTracesSampler() string {
	return envOr(EnvTracesSampler, c.TracesSampler)
}

// GetTracesSamplerArg returns the sampler argument as text, or an empty string when unset.
// A configured 0 is kept, it samples nothing.
func (c *TelemetryConfig) GetTracesSamplerArg() string {
	configured := ""
	if c.TracesSamplerArg != nil {
		configured = strconv.FormatFloat(*c.TracesSamplerArg, 'f', -1, 64)
	}
	return envOr(EnvTracesSamplerArg, configured)
}

// Validate checks the values of the [telemetry] table.
// Environment variables are not validated, the exporters fall back to their defaults for unknown values.
func (c *TelemetryConfig) Validate() error {
	if c.Protocol != "" && !slices.Contains(telemetryProtocols, strings.ToLower(c.Protocol)) {
		return fmt.Errorf("invalid telemetry protocol %q, valid protocols are: %s", c.Protocol, strings.Join(telemetryProtocols, ", "))
	}
	if c.TracesSampler != "" && !slices.Contains(tracesSamplers, c.TracesSampler) {
		return fmt.Errorf("invalid traces sampler %q, valid samplers are: %s", c.TracesSampler, strings.Join(tracesSamplers, ", "))
	}
	if c.TracesSamplerArg != nil && (*c.TracesSamplerArg < 0 || *c.TracesSamplerArg > 1) {
		return fmt.Errorf("traces_sampler_arg must be between 0 and 1, got %v", *c.TracesSamplerArg)
	}
	return nil
}
