package branching

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

func initActiveBranch() []api.ServerTool {
	return []api.ServerTool{
		{Tool: api.Tool{
			Name: "set_active_branch",
			Description: "Activate a NetBox branch by its schema_id. Every following object operation (get, search, create, update, delete, bulk) " +
				"is performed in that branch until clear_active_branch is called. No request is sent to NetBox",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"schema_id": {
						Type:        "string",
						Description: "The schema_id of the branch (as returned by get_branches), not its numeric ID",
					},
				},
				Required: []string{"schema_id"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Branches: Set Active",
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: activeBranchSet},
		{Tool: api.Tool{
			Name:        "clear_active_branch",
			Description: "Deactivate the active NetBox branch, following object operations target main",
			InputSchema: &jsonschema.Schema{
				Type: "object",
			},
			Annotations: api.ToolAnnotations{
				Title:           "Branches: Clear Active",
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: activeBranchClear},
	}
}

func activeBranchSet(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	schemaID, err := api.RequiredString(params, "schema_id")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	if err := params.NetBoxClient.SetActiveBranch(schemaID); err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to set active branch: %w", err)), nil
	}
	active := params.NetBoxClient.ActiveBranch()
	klog.V(1).Infof("Active NetBox branch set to %s", active)
	return api.NewStructuredResult("Active branch set to "+active, map[string]any{"active_branch": active}), nil
}

func activeBranchClear(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	previous := params.NetBoxClient.ActiveBranch()
	params.NetBoxClient.ClearActiveBranch()
	klog.V(1).Info("Active NetBox branch cleared")
	text := "Active branch cleared, operations target main"
	if previous == "" {
		text = "No active branch, operations target main"
	}
	return api.NewStructuredResult(text, map[string]any{"active_branch": nil}), nil
}
