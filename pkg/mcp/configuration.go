package mcp

import (
	"fmt"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/config"
	"github.com/netbox-community/netbox-mcp-server/pkg/output"
	"github.com/netbox-community/netbox-mcp-server/pkg/prompts"
	"github.com/netbox-community/netbox-mcp-server/pkg/toolsets"
)

// Configuration resolves the names of a StaticConfig into toolsets and an output format.
type Configuration struct {
	*config.StaticConfig
	listOutput output.Output
	toolsets   []api.Toolset
}

// Toolsets returns the toolsets named by the configuration, skipping unknown names.
func (c *Configuration) Toolsets() []api.Toolset {
	if c.toolsets != nil {
		return c.toolsets
	}
	return resolveToolsets(c.StaticConfig.Toolsets)
}

func (c *Configuration) ListOutput() output.Output {
	if c.listOutput != nil {
		return c.listOutput
	}
	return output.FromString(c.StaticConfig.ListOutput)
}

// resolved returns a copy of c with the toolset and output names resolved.
// The copy is never written again and can be shared between tool calls.
func (c *Configuration) resolved() *Configuration {
	ret := *c
	ret.toolsets = resolveToolsets(c.StaticConfig.Toolsets)
	ret.listOutput = output.FromString(c.StaticConfig.ListOutput)
	return &ret
}

func resolveToolsets(names []string) []api.Toolset {
	var ret []api.Toolset
	for _, name := range names {
		if ts := toolsets.ToolsetFromString(name); ts != nil {
			ret = append(ret, ts)
		}
	}
	return ret
}

// Validate rejects unknown toolset and output names and malformed prompts.
func (c *Configuration) Validate() error {
	for _, name := range c.StaticConfig.Toolsets {
		if toolsets.ToolsetFromString(name) == nil {
			return fmt.Errorf("invalid toolset name: %s, valid names are: %v", name, toolsets.ToolsetNames())
		}
	}
	if c.StaticConfig.ListOutput != "" && output.FromString(c.StaticConfig.ListOutput) == nil {
		return fmt.Errorf("invalid output name: %s, valid names are: %v", c.StaticConfig.ListOutput, output.Names)
	}
	if err := prompts.Validate(c.Prompts); err != nil {
		return fmt.Errorf("invalid prompts configuration: %w", err)
	}
	return nil
}
