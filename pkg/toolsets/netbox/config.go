package netbox

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/config"
	internalnb "github.com/netbox-community/netbox-mcp-server/pkg/netbox"
)

// DefaultSearchObjectTypes are searched by search_netbox when the caller provides no object_types.
var DefaultSearchObjectTypes = []string{
	internalnb.Devices.String(),
	internalnb.Sites.String(),
	internalnb.IPAddresses.String(),
	internalnb.Interfaces.String(),
	internalnb.Racks.String(),
	internalnb.VLANs.String(),
	internalnb.Circuits.String(),
	internalnb.VirtualMachines.String(),
}

// Config is the [toolset_configs.netbox] table.
type Config struct {
	// SearchObjectTypes replaces DefaultSearchObjectTypes.
	SearchObjectTypes []string `toml:"search_object_types,omitempty"`
	// SearchLimit replaces the default search_netbox limit.
	SearchLimit int `toml:"search_limit,omitempty"`
}

var _ api.ExtendedConfig = (*Config)(nil)

func (c *Config) Validate() error {
	for _, name := range c.SearchObjectTypes {
		if _, err := internalnb.ParseObjectType(name); err != nil {
			return fmt.Errorf("invalid search_object_types entry: %w", err)
		}
	}
	if c.SearchLimit < 0 {
		return fmt.Errorf("search_limit cannot be negative")
	}
	return nil
}

func toolsetParser(primitive toml.Primitive, md toml.MetaData) (api.ExtendedConfig, error) {
	var cfg Config
	if err := md.PrimitiveDecode(primitive, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// toolsetConfig returns the configured toolset settings, or the zero Config.
func toolsetConfig(provider api.ExtendedConfigProvider) *Config {
	if provider == nil {
		return &Config{}
	}
	if cfg, ok := provider.GetToolsetConfig("netbox"); ok {
		if netboxCfg, ok := cfg.(*Config); ok {
			return netboxCfg
		}
	}
	return &Config{}
}

func init() {
	config.RegisterToolsetConfig("netbox", toolsetParser)
}
