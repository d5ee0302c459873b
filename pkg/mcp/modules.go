package mcp

import (
	_ "github.com/netbox-community/netbox-mcp-server/pkg/toolsets/branching"
	_ "github.com/netbox-community/netbox-mcp-server/pkg/toolsets/netbox"
)
