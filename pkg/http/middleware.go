package http

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/telemetry"
)

var httpTracer = otel.Tracer("netbox-mcp-server/http")

// RequestRecorder receives the outcome of every HTTP request, metrics.Metrics implements it.
type RequestRecorder interface {
	RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// RequestMiddleware logs every request at V(5), records it with recorder (when not nil) and,
// when tracing is enabled, wraps it in a server span continuing the caller's W3C trace context.
// Health checks are neither traced nor recorded.
func RequestMiddleware(next http.Handler, recorder RequestRecorder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthEndpoint {
			next.ServeHTTP(w, r)
			return
		}
		route := getHTTPRoute(r.URL.Path)
		var span trace.Span
		if telemetry.Enabled() {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span = httpTracer.Start(ctx, r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(requestAttributes(r, route)...),
			)
			defer span.End()
			r = r.WithContext(ctx)
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		if span != nil {
			endSpan(span, rec.statusCode)
		}
		if recorder != nil {
			recorder.RecordHTTPRequest(r.Context(), r.Method, route, rec.statusCode, duration)
		}
		klog.V(5).Infof("%s %s %d %v", r.Method, r.URL.Path, rec.statusCode, duration)
	})
}

// requestAttributes follows the OpenTelemetry HTTP server conventions, the query string is left out
// as it may carry NetBox filter values.
func requestAttributes(r *http.Request, route string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", r.Method),
		attribute.String("url.path", r.URL.Path),
		attribute.String("url.scheme", requestScheme(r)),
		attribute.String("server.address", r.Host),
		attribute.String("network.protocol.version", r.Proto),
		attribute.String("client.address", clientAddress(r)),
		attribute.String("http.route", route),
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, attribute.String("user_agent.original", ua))
	}
	if r.ContentLength > 0 {
		attrs = append(attrs, attribute.Int64("http.request.body.size", r.ContentLength))
	}
	return attrs
}

func endSpan(span trace.Span, statusCode int) {
	span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	switch {
	case statusCode >= http.StatusInternalServerError:
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
		span.SetAttributes(attribute.String("error.type", strconv.Itoa(statusCode)))
	case statusCode >= http.StatusBadRequest:
		// client errors leave the server span status unset
		span.SetAttributes(attribute.String("error.type", strconv.Itoa(statusCode)))
	default:
		span.SetStatus(codes.Ok, "")
	}
}

// getHTTPRoute collapses session sub-paths so that spans and metrics keep a low cardinality.
func getHTTPRoute(path string) string {
	if strings.HasPrefix(path, mcpEndpoint+"/") {
		return mcpEndpoint + "/*"
	}
	return path
}

// clientAddress prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer address.
func clientAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// statusRecorder captures the response status while keeping the streaming
// capabilities SSE and streamable HTTP rely on.
type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.statusCode = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Flush() {
	if flusher, ok := s.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := s.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
