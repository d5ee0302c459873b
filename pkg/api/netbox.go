package api

import (
	"github.com/netbox-community/netbox-mcp-server/pkg/netbox"
)

// NetBoxClient defines the NetBox operations that tool and prompt handlers need.
// Object calls are scoped to the active branch, branch management calls never are.
type NetBoxClient interface {
	netbox.Client
	netbox.BranchClient
}
