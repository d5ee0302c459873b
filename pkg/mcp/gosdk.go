package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"k8s.io/utils/ptr"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/mcplog"
)

// ToolCallRequest is the decoded form of a tools/call request.
type ToolCallRequest struct {
	Name      string
	arguments map[string]any
}

var _ api.ToolCallRequest = (*ToolCallRequest)(nil)

func (t *ToolCallRequest) GetArguments() map[string]any {
	return t.arguments
}

// GoSdkToolCallParamsToToolCallRequest decodes the raw tool call arguments.
// Numbers are decoded as json.Number so that large object IDs keep their precision.
func GoSdkToolCallParamsToToolCallRequest(params *mcp.CallToolParamsRaw) (*ToolCallRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("missing tool call parameters")
	}
	arguments := make(map[string]any)
	if len(params.Arguments) > 0 && !bytes.Equal(bytes.TrimSpace(params.Arguments), []byte("null")) {
		decoder := json.NewDecoder(bytes.NewReader(params.Arguments))
		decoder.UseNumber()
		if err := decoder.Decode(&arguments); err != nil {
			return &ToolCallRequest{Name: params.Name, arguments: arguments}, fmt.Errorf("failed to decode arguments of tool %s: %w", params.Name, err)
		}
	}
	return &ToolCallRequest{Name: params.Name, arguments: arguments}, nil
}

// ServerToolToGoSdkTool converts an api.ServerTool to the go-sdk tool and handler
func ServerToolToGoSdkTool(s *Server, tool api.ServerTool) (*mcp.Tool, mcp.ToolHandler, error) {
	goSdkTool := &mcp.Tool{
		Name:        tool.Tool.Name,
		Title:       tool.Tool.Annotations.Title,
		Description: tool.Tool.Description,
		Annotations: &mcp.ToolAnnotations{
			Title:           tool.Tool.Annotations.Title,
			ReadOnlyHint:    ptr.Deref(tool.Tool.Annotations.ReadOnlyHint, false),
			DestructiveHint: tool.Tool.Annotations.DestructiveHint,
			IdempotentHint:  ptr.Deref(tool.Tool.Annotations.IdempotentHint, false),
			OpenWorldHint:   tool.Tool.Annotations.OpenWorldHint,
		},
	}
	if tool.Tool.InputSchema == nil {
		return nil, nil, fmt.Errorf("tool %s has no input schema", tool.Tool.Name)
	}
	schema, err := json.Marshal(tool.Tool.InputSchema)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tool input schema for tool %s: %w", tool.Tool.Name, err)
	}
	goSdkTool.InputSchema = json.RawMessage(schema)

	goSdkHandler := func(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		toolCallRequest, err := GoSdkToolCallParamsToToolCallRequest(request.Params)
		if err != nil {
			return toCallToolResult(api.NewToolCallResult("", err)), nil
		}
		cfg := s.currentConfiguration()
		result, err := tool.Handler(api.ToolHandlerParams{
			Context:                ctx,
			ExtendedConfigProvider: cfg,
			NetBoxClient:           s.NetBoxClient(),
			ToolCallRequest:        toolCallRequest,
			ListOutput:             cfg.ListOutput(),
		})
		if err != nil {
			return nil, err
		}
		if result.Error != nil {
			mcplog.HandleNetBoxError(ctx, result.Error, tool.Tool.Name)
		}
		return toCallToolResult(result), nil
	}
	return goSdkTool, goSdkHandler, nil
}

// toCallToolResult converts a handler result. Errors become tool errors carrying only the error text.
func toCallToolResult(result *api.ToolCallResult) *mcp.CallToolResult {
	if result.Error != nil {
		return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: result.Error.Error()}}}
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: result.Content}},
		StructuredContent: result.StructuredContent,
	}
}
