// Package toolsets holds the registry the toolset packages add themselves to from init.
package toolsets

import (
	"slices"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

var registry []api.Toolset

// Clear empties the registry, TESTING PURPOSES ONLY.
func Clear() {
	registry = nil
}

// Register adds toolset, a second toolset with the same name is a programming error.
func Register(toolset api.Toolset) {
	if ToolsetFromString(toolset.GetName()) != nil {
		panic("toolset already registered: " + toolset.GetName())
	}
	registry = append(registry, toolset)
}

// Toolsets returns the registered toolsets in registration order.
func Toolsets() []api.Toolset {
	return slices.Clone(registry)
}

func ToolsetNames() []string {
	names := make([]string, 0, len(registry))
	for _, toolset := range registry {
		names = append(names, toolset.GetName())
	}
	slices.Sort(names)
	return names
}

func ToolsetFromString(name string) api.Toolset {
	i := slices.IndexFunc(registry, func(toolset api.Toolset) bool { return toolset.GetName() == name })
	if i < 0 {
		return nil
	}
	return registry[i]
}
