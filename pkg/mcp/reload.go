package mcp

import (
	"fmt"
	"reflect"
	"slices"

	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/config"
	"github.com/netbox-community/netbox-mcp-server/pkg/prompts"
)

// ReloadConfiguration applies a new configuration to the running server.
// The NetBox client is rebuilt when the connection settings changed, the active branch
// survives the rebuild unless the new configuration selects one.
func (s *Server) ReloadConfiguration(newConfig *config.StaticConfig) error {
	klog.V(1).Info("Reloading MCP server configuration...")
	next := Configuration{StaticConfig: newConfig}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !s.injectedClient && !reflect.DeepEqual(s.currentConfiguration().NetBox, newConfig.NetBox) {
		if err := s.replaceClient(newConfig); err != nil {
			return fmt.Errorf("failed to reload NetBox client: %w", err)
		}
	}
	s.mu.Lock()
	s.configuration = next.resolved()
	s.mu.Unlock()
	if err := s.reloadToolsets(); err != nil {
		return fmt.Errorf("failed to reload toolsets: %w", err)
	}
	klog.V(1).Info("MCP server configuration reloaded successfully")
	return nil
}

func (s *Server) replaceClient(cfg *config.StaticConfig) error {
	client, err := s.newNetBoxClient(cfg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil && cfg.NetBox.Branch == "" {
		if branch := s.client.ActiveBranch(); branch != "" {
			if err = client.SetActiveBranch(branch); err != nil {
				klog.V(1).Infof("Active branch %s not carried over: %v", branch, err)
			}
		}
	}
	s.client = client
	return nil
}

// reloadToolsets registers the tools and prompts of the current configuration and
// removes the previously registered ones that no longer apply.
func (s *Server) reloadToolsets() error {
	var err error
	s.enabledTools, err = syncRegistered(s.enabledTools, s.applicableTools(),
		func(t api.ServerTool) string { return t.Tool.Name },
		s.server.RemoveTools, s.registerTool)
	if err != nil {
		return err
	}
	s.enabledPrompts, err = syncRegistered(s.enabledPrompts, s.applicablePrompts(),
		func(p api.ServerPrompt) string { return p.Prompt.Name },
		s.server.RemovePrompts, s.registerPrompt)
	return err
}

// syncRegistered removes the registered names missing from items, (re)registers every item and returns their names.
func syncRegistered[T any](registered []string, items []T, name func(T) string, remove func(...string), register func(T) error) ([]string, error) {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = name(item)
	}
	stale := slices.DeleteFunc(slices.Clone(registered), func(n string) bool { return slices.Contains(names, n) })
	if len(stale) > 0 {
		remove(stale...)
	}
	for _, item := range items {
		if err := register(item); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func (s *Server) applicableTools() []api.ServerTool {
	cfg := s.currentConfiguration()
	filter := CompositeFilter(
		ReadOnlyFilter(cfg.ReadOnly),
		DisableDestructiveFilter(cfg.DisableDestructive),
		EnabledToolsFilter(cfg.EnabledTools),
		DisabledToolsFilter(cfg.DisabledTools),
	)
	mutator := ComposeMutators(WithObjectInputSchema())
	var tools []api.ServerTool
	for _, toolset := range cfg.Toolsets() {
		for _, tool := range toolset.GetTools() {
			if tool = mutator(tool); filter(tool) {
				tools = append(tools, tool)
			}
		}
	}
	return tools
}

// applicablePrompts merges the toolset prompts with the configured ones, configured prompts win on name clashes.
func (s *Server) applicablePrompts() []api.ServerPrompt {
	cfg := s.currentConfiguration()
	var toolsetPrompts []api.ServerPrompt
	for _, toolset := range cfg.Toolsets() {
		toolsetPrompts = append(toolsetPrompts, toolset.GetPrompts()...)
	}
	return prompts.MergePrompts(toolsetPrompts, prompts.ToServerPrompts(cfg.Prompts))
}

func (s *Server) registerTool(tool api.ServerTool) error {
	goSdkTool, handler, err := ServerToolToGoSdkTool(s, tool)
	if err != nil {
		return fmt.Errorf("failed to convert tool %s: %w", tool.Tool.Name, err)
	}
	s.server.AddTool(goSdkTool, handler)
	return nil
}

func (s *Server) registerPrompt(prompt api.ServerPrompt) error {
	goSdkPrompt, handler, err := ServerPromptToGoSdkPrompt(s, prompt)
	if err != nil {
		return fmt.Errorf("failed to convert prompt %s: %w", prompt.Prompt.Name, err)
	}
	s.server.AddPrompt(goSdkPrompt, handler)
	return nil
}
