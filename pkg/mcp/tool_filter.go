package mcp

import (
	"slices"

	"k8s.io/utils/ptr"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

// ToolFilter is a function that takes a ServerTool and returns a boolean indicating whether to include the tool
type ToolFilter func(tool api.ServerTool) bool

func CompositeFilter(filters ...ToolFilter) ToolFilter {
	return func(tool api.ServerTool) bool {
		for _, f := range filters {
			if !f(tool) {
				return false
			}
		}

		return true
	}
}

// ReadOnlyFilter keeps only tools annotated with readOnlyHint=true when readOnly is set.
func ReadOnlyFilter(readOnly bool) ToolFilter {
	return func(tool api.ServerTool) bool {
		return !readOnly || ptr.Deref(tool.Tool.Annotations.ReadOnlyHint, false)
	}
}

// DisableDestructiveFilter drops tools annotated with destructiveHint=true when disableDestructive is set.
func DisableDestructiveFilter(disableDestructive bool) ToolFilter {
	return func(tool api.ServerTool) bool {
		return !disableDestructive || !ptr.Deref(tool.Tool.Annotations.DestructiveHint, false)
	}
}

// EnabledToolsFilter keeps only the named tools, a nil list keeps every tool.
func EnabledToolsFilter(enabled []string) ToolFilter {
	return func(tool api.ServerTool) bool {
		return enabled == nil || slices.Contains(enabled, tool.Tool.Name)
	}
}

// DisabledToolsFilter drops the named tools.
func DisabledToolsFilter(disabled []string) ToolFilter {
	return func(tool api.ServerTool) bool {
		return !slices.Contains(disabled, tool.Tool.Name)
	}
}
