package mcp

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/mcplog"
	"github.com/netbox-community/netbox-mcp-server/pkg/metrics"
)

// sessionInjectionMiddleware stores the server session in the context so that handlers can send MCP log notifications.
func sessionInjectionMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if session, ok := req.GetSession().(*mcp.ServerSession); ok && session != nil {
			ctx = mcplog.WithSession(ctx, session)
		}
		return next(ctx, method, req)
	}
}

// requestMeta returns the _meta of the request parameters, or nil.
func requestMeta(req mcp.Request) map[string]any {
	params := req.GetParams()
	if params == nil {
		return nil
	}
	if v := reflect.ValueOf(params); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	return params.GetMeta()
}

// traceContextPropagationMiddleware extracts a W3C trace context (traceparent, tracestate) sent by the client in _meta.
func traceContextPropagationMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		meta := requestMeta(req)
		if len(meta) == 0 {
			return next(ctx, method, req)
		}
		carrier := propagation.MapCarrier{}
		for k, v := range meta {
			if s, ok := v.(string); ok {
				carrier[k] = s
			}
		}
		return next(otel.GetTextMapPropagator().Extract(ctx, carrier), method, req)
	}
}

// tracingMiddleware creates a server span for every MCP request.
func tracingMiddleware(tracerName string) func(mcp.MethodHandler) mcp.MethodHandler {
	tracer := otel.Tracer(tracerName)
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			spanName := method
			attrs := []attribute.KeyValue{attribute.String("mcp.method.name", method)}
			if params, ok := req.GetParams().(*mcp.CallToolParamsRaw); ok && params != nil {
				spanName = fmt.Sprintf("%s %s", method, params.Name)
				attrs = append(attrs, attribute.String("gen_ai.tool.name", params.Name))
			}
			if session, ok := req.GetSession().(*mcp.ServerSession); ok && session != nil && session.ID() != "" {
				attrs = append(attrs, attribute.String("mcp.session.id", session.ID()))
			}
			ctx, span := tracer.Start(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			result, err := next(ctx, method, req)
			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case isToolError(result):
				span.SetStatus(codes.Error, "tool call failed")
			default:
				span.SetStatus(codes.Ok, "")
			}
			return result, err
		}
	}
}

func isToolError(result mcp.Result) bool {
	callToolResult, ok := result.(*mcp.CallToolResult)
	return ok && callToolResult != nil && callToolResult.IsError
}

func toolCallLoggingMiddleware(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		switch params := req.GetParams().(type) {
		case *mcp.CallToolParamsRaw:
			if toolCallRequest, err := GoSdkToolCallParamsToToolCallRequest(params); err == nil {
				klog.V(5).Infof("mcp tool call: %s(%v)", toolCallRequest.Name, toolCallRequest.GetArguments())
			}
			if req.GetExtra() != nil && req.GetExtra().Header != nil {
				buffer := bytes.NewBuffer(make([]byte, 0))
				if err := req.GetExtra().Header.WriteSubset(buffer, map[string]bool{"Authorization": true, "authorization": true}); err == nil {
					klog.V(7).Infof("mcp tool call headers: %s", buffer)
				}
			}
		}
		return next(ctx, method, req)
	}
}

// metricsMiddleware records every request, tool calls under the tool name and other methods under the method name.
func metricsMiddleware(collector metrics.Collector) func(mcp.MethodHandler) mcp.MethodHandler {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			result, err := next(ctx, method, req)
			name := method
			if params, ok := req.GetParams().(*mcp.CallToolParamsRaw); ok && params != nil && params.Name != "" {
				name = params.Name
			}
			collector.RecordToolCall(ctx, name, time.Since(start), err)
			return result, err
		}
	}
}
