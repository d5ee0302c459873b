package config

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

// ExtendedConfigParser decodes a [toolset_configs.<name>] table into a toolset-specific configuration.
type ExtendedConfigParser func(primitive toml.Primitive, md toml.MetaData) (api.ExtendedConfig, error)

type extendedConfigRegistry struct {
	mu      sync.RWMutex
	parsers map[string]ExtendedConfigParser
}

func newExtendedConfigRegistry() *extendedConfigRegistry {
	return &extendedConfigRegistry{parsers: make(map[string]ExtendedConfigParser)}
}

var toolsetConfigRegistry = newExtendedConfigRegistry()

// RegisterToolsetConfig registers the parser for the named toolset configuration, usually from an init function.
// It panics if a parser is already registered for the name.
func RegisterToolsetConfig(name string, parser ExtendedConfigParser) {
	toolsetConfigRegistry.register(name, parser)
}

func (r *extendedConfigRegistry) register(name string, parser ExtendedConfigParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.parsers[name]; exists {
		panic("extended config parser already registered for name: " + name)
	}
	r.parsers[name] = parser
}

// parse decodes and validates the tables with a registered parser, the others are ignored.
func (r *extendedConfigRegistry) parse(md toml.MetaData, tables map[string]toml.Primitive) (map[string]api.ExtendedConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	parsed := make(map[string]api.ExtendedConfig, len(tables))
	for name, primitive := range tables {
		parser, ok := r.parsers[name]
		if !ok {
			continue
		}
		extended, err := parser(primitive, md)
		if err != nil {
			return nil, fmt.Errorf("failed to parse extended config for '%s': %w", name, err)
		}
		if err = extended.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate extended config for '%s': %w", name, err)
		}
		parsed[name] = extended
	}
	return parsed, nil
}
