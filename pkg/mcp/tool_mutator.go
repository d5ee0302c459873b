package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

type ToolMutator func(tool api.ServerTool) api.ServerTool

// ComposeMutators applies the mutators in order.
func ComposeMutators(mutators ...ToolMutator) ToolMutator {
	return func(tool api.ServerTool) api.ServerTool {
		for _, m := range mutators {
			tool = m(tool)
		}
		return tool
	}
}

// WithObjectInputSchema makes sure every tool declares an object input schema with a properties map.
// Some clients fail to parse an object schema without properties.
func WithObjectInputSchema() ToolMutator {
	return func(tool api.ServerTool) api.ServerTool {
		if tool.Tool.InputSchema == nil {
			tool.Tool.InputSchema = &jsonschema.Schema{Type: "object"}
		}
		if tool.Tool.InputSchema.Type == "" {
			tool.Tool.InputSchema.Type = "object"
		}
		if tool.Tool.InputSchema.Properties == nil {
			tool.Tool.InputSchema.Properties = make(map[string]*jsonschema.Schema)
		}
		return tool
	}
}
