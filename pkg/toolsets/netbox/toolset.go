package netbox

import (
	"slices"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/toolsets"
)

type Toolset struct{}

var _ api.Toolset = (*Toolset)(nil)

func (t *Toolset) GetName() string {
	return "netbox"
}

func (t *Toolset) GetDescription() string {
	return "Query, search, create, update and delete NetBox objects (DCIM, IPAM, circuits, virtualization, tenancy, VPN, wireless)"
}

func (t *Toolset) GetTools() []api.ServerTool {
	return slices.Concat(
		initObjects(),
		initBulk(),
		initSearch(),
	)
}

func (t *Toolset) GetPrompts() []api.ServerPrompt {
	return nil
}

func init() {
	toolsets.Register(&Toolset{})
}
