package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

// StaticConfig is the configuration for the server.
// It allows to configure server specific settings, the NetBox connection and tools to be enabled or disabled.
type StaticConfig struct {
	LogLevel   int    `toml:"log_level,omitzero"`
	Port       string `toml:"port,omitempty"`
	SSEBaseURL string `toml:"sse_base_url,omitempty"`
	ListOutput string `toml:"list_output,omitempty"`
	// When true, expose only tools annotated with readOnlyHint=true
	ReadOnly bool `toml:"read_only,omitempty"`
	// When true, disable tools annotated with destructiveHint=true
	DisableDestructive bool `toml:"disable_destructive,omitempty"`
	// When true, the streamable HTTP handler does not track sessions
	Stateless     bool     `toml:"stateless,omitempty"`
	Toolsets      []string `toml:"toolsets,omitempty"`
	EnabledTools  []string `toml:"enabled_tools,omitempty"`
	DisabledTools []string `toml:"disabled_tools,omitempty"`
	// ServerInstructions are sent to MCP clients during initialization.
	ServerInstructions string `toml:"server_instructions,omitempty"`

	// NetBox connection settings, NETBOX_* environment variables take precedence.
	NetBox NetBoxConfig `toml:"netbox,omitempty"`

	Telemetry TelemetryConfig `toml:"telemetry,omitempty"`

	// Prompts defined in configuration, merged with (and overriding) toolset prompts.
	Prompts []api.Prompt `toml:"prompts,omitempty"`

	// ToolsetConfigs holds the raw [toolset_configs.<name>] tables, decoded by the registered parsers.
	ToolsetConfigs map[string]toml.Primitive `toml:"toolset_configs,omitempty"`

	parsedToolsetConfigs map[string]api.ExtendedConfig
	configDirPath        string
}

var _ api.ExtendedConfigProvider = (*StaticConfig)(nil)

// Read loads the configuration in this order: defaults, the main config file, the *.toml
// drop-in files of configDir in lexical order, and finally the NETBOX_* environment variables.
// Both configPath and configDir are optional.
func Read(configPath string, configDir string) (*StaticConfig, error) {
	cfg := Default()

	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path to config file: %w", err)
		}
		cfg.configDirPath = filepath.Dir(absPath)
		klog.V(2).Infof("Loading main config from: %s", configPath)
		if err = cfg.mergeFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load main config file %s: %w", configPath, err)
		}
	}

	if configDir != "" {
		files, err := dropInFiles(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load drop-in configs from %s: %w", configDir, err)
		}
		klog.V(2).Infof("Loading %d drop-in config file(s) from: %s", len(files), configDir)
		for _, file := range files {
			klog.V(3).Infof("Merging drop-in config: %s", filepath.Base(file))
			if err = cfg.mergeFile(file); err != nil {
				return nil, fmt.Errorf("failed to merge drop-in config %s: %w", file, err)
			}
		}
	}

	if err := cfg.NetBox.applyEnvironment(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadToml decodes configData over the defaults. Environment overrides are not applied.
func ReadToml(configData []byte) (*StaticConfig, error) {
	cfg := Default()
	if err := cfg.merge(string(configData)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *StaticConfig) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err = c.merge(string(data)); err != nil {
		return fmt.Errorf("failed to decode TOML: %w", err)
	}
	return nil
}

// merge decodes data over c: keys present in data replace the current values, arrays included,
// the others are left untouched. Toolset tables present in data are parsed and replace the previous ones.
func (c *StaticConfig) merge(data string) error {
	c.ToolsetConfigs = nil
	md, err := toml.Decode(data, c)
	if err != nil {
		return err
	}
	parsed, err := toolsetConfigRegistry.parse(md, c.ToolsetConfigs)
	if err != nil {
		return err
	}
	for name, extended := range parsed {
		c.SetToolsetConfig(name, extended)
	}
	return nil
}

// dropInFiles lists the *.toml files of dir sorted by name, dotfiles and directories excluded.
// A missing dir yields no files.
func dropInFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		klog.V(2).Infof("Drop-in config directory does not exist, skipping: %s", dir)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".toml" {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	slices.Sort(files)
	return files, nil
}

func (c *StaticConfig) GetToolsetConfig(name string) (api.ExtendedConfig, bool) {
	cfg, ok := c.parsedToolsetConfigs[name]
	return cfg, ok
}

// SetToolsetConfig replaces the parsed configuration for the named toolset.
func (c *StaticConfig) SetToolsetConfig(name string, cfg api.ExtendedConfig) {
	if c.parsedToolsetConfigs == nil {
		c.parsedToolsetConfigs = make(map[string]api.ExtendedConfig)
	}
	c.parsedToolsetConfigs[name] = cfg
}

// ConfigDirPath returns the directory of the main configuration file, if any.
func (c *StaticConfig) ConfigDirPath() string {
	return c.configDirPath
}
