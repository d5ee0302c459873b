package branching

import (
	"slices"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/toolsets"
)

type Toolset struct{}

var _ api.Toolset = (*Toolset)(nil)

func (t *Toolset) GetName() string {
	return "branching"
}

func (t *Toolset) GetDescription() string {
	return "Manage NetBox branches (netbox-branching plugin) and the branch that scopes object operations"
}

func (t *Toolset) GetTools() []api.ServerTool {
	return slices.Concat(
		initBranches(),
		initActiveBranch(),
	)
}

func (t *Toolset) GetPrompts() []api.ServerPrompt {
	return slices.Concat(
		initWorkflow(),
	)
}

func init() {
	toolsets.Register(&Toolset{})
}
