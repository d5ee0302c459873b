package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

func promptArguments(request *mcp.GetPromptRequest) map[string]string {
	if request == nil || request.Params == nil || request.Params.Arguments == nil {
		return map[string]string{}
	}
	return request.Params.Arguments
}

// ServerPromptToGoSdkPrompt converts an api.ServerPrompt to the go-sdk prompt and handler.
// The NetBox client is resolved on every call so that prompts observe configuration reloads.
func ServerPromptToGoSdkPrompt(s *Server, serverPrompt api.ServerPrompt) (*mcp.Prompt, mcp.PromptHandler, error) {
	mcpPrompt := &mcp.Prompt{
		Name:        serverPrompt.Prompt.Name,
		Title:       serverPrompt.Prompt.Title,
		Description: serverPrompt.Prompt.Description,
	}
	for _, arg := range serverPrompt.Prompt.Arguments {
		mcpPrompt.Arguments = append(mcpPrompt.Arguments, &mcp.PromptArgument{
			Name:        arg.Name,
			Description: arg.Description,
			Required:    arg.Required,
		})
	}

	handler := func(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		result, err := serverPrompt.Handler(api.PromptHandlerParams{
			Context:      ctx,
			NetBoxClient: s.NetBoxClient(),
			Arguments:    promptArguments(request),
		})
		if err != nil {
			return nil, err
		}
		messages := make([]*mcp.PromptMessage, 0, len(result.Messages))
		for _, msg := range result.Messages {
			messages = append(messages, &mcp.PromptMessage{
				Role:    mcp.Role(msg.Role),
				Content: &mcp.TextContent{Text: msg.Text},
			})
		}
		return &mcp.GetPromptResult{Description: result.Description, Messages: messages}, nil
	}
	return mcpPrompt, handler, nil
}
