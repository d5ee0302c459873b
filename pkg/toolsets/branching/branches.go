package branching

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"k8s.io/utils/ptr"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/netbox"
	"github.com/netbox-community/netbox-mcp-server/pkg/toolsets"
)

func branchIDProperty() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "integer",
		Description: "The numeric ID of the branch",
	}
}

func initBranches() []api.ServerTool {
	return []api.ServerTool{
		{Tool: api.Tool{
			Name:        "get_branches",
			Description: "List NetBox branches, optionally filtered (e.g. {\"status\": \"ready\"} or {\"name\": \"feature-x\"}). The schema_id of a branch is used by set_active_branch",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"filters": {
						Type:        "object",
						Description: "Optional NetBox API filters for branches",
					},
				},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Branches: List",
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: branchesList},
		{Tool: api.Tool{
			Name:        "get_branch",
			Description: "Get a NetBox branch by its ID",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"branch_id": branchIDProperty(),
				},
				Required: []string{"branch_id"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Branches: Get",
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: branchesGet},
		{Tool: api.Tool{
			Name:        "create_branch",
			Description: "Create a new NetBox branch. NetBox provisions the branch asynchronously, wait for status 'ready' before activating it",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        "string",
						Description: "Name of the branch",
					},
					"description": {
						Type:        "string",
						Description: "Optional description of the branch",
					},
					"base_branch": {
						Type:        "string",
						Description: "Optional schema ID of the branch to base the new branch on",
					},
				},
				Required: []string{"name"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Branches: Create",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(false),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: branchesCreate},
		{Tool: api.Tool{
			Name:        "update_branch",
			Description: "Update a NetBox branch, e.g. {\"description\": \"Rack A1 rebuild\"}",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"branch_id": branchIDProperty(),
					"data": {
						Type:        "object",
						Description: "The branch fields to update",
					},
				},
				Required: []string{"branch_id", "data"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Branches: Update",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(true),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: branchesUpdate},
		{Tool: api.Tool{
			Name:        "delete_branch",
			Description: "Delete a NetBox branch and every change it holds. Returns {\"deleted\": false} when the branch does not exist",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"branch_id": branchIDProperty(),
				},
				Required: []string{"branch_id"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Branches: Delete",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(true),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: branchesDelete},
		{Tool: api.Tool{
			Name: "merge_branch",
			Description: "Merge the changes of a NetBox branch into main (or into target_branch). " +
				"With commit=false NetBox performs a dry run and reports what would change. Returns the merge job",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"branch_id": branchIDProperty(),
					"commit": {
						Type:        "boolean",
						Description: "Optional, commit the merge (true, default) or perform a dry run (false)",
						Default:     api.ToRawMessage(true),
					},
					"target_branch": {
						Type:        "string",
						Description: "Optional target branch, defaults to main",
					},
				},
				Required: []string{"branch_id"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Branches: Merge",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(true),
				IdempotentHint:  ptr.To(false),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: branchesMerge},
	}
}

func branchesList(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	filters, err := api.OptionalObject(params, "filters")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	branches, err := params.NetBoxClient.ListBranches(params.Context, filters)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to get branches: %w", err)), nil
	}
	return toolsets.ListResult(params, branches), nil
}

func branchesGet(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	id, err := api.RequiredInt64(params, "branch_id")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	branch, err := params.NetBoxClient.GetBranch(params.Context, id)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to get branch: %w", err)), nil
	}
	return toolsets.ObjectResult(branch), nil
}

func branchesCreate(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	name, err := api.RequiredString(params, "name")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	spec := netbox.BranchSpec{
		Name:        name,
		Description: api.OptionalString(params, "description", ""),
		BaseBranch:  api.OptionalString(params, "base_branch", ""),
	}
	branch, err := params.NetBoxClient.CreateBranch(params.Context, spec)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to create branch: %w", err)), nil
	}
	return toolsets.ObjectResult(branch), nil
}

func branchesUpdate(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	id, err := api.RequiredInt64(params, "branch_id")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	data, err := api.RequiredObject(params, "data")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	branch, err := params.NetBoxClient.UpdateBranch(params.Context, id, data)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to update branch: %w", err)), nil
	}
	return toolsets.ObjectResult(branch), nil
}

func branchesDelete(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	id, err := api.RequiredInt64(params, "branch_id")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	deleted, err := params.NetBoxClient.DeleteBranch(params.Context, id)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to delete branch: %w", err)), nil
	}
	return toolsets.DeletedResult(deleted), nil
}

func branchesMerge(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	id, err := api.RequiredInt64(params, "branch_id")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	opts := netbox.MergeOptions{
		Commit:       api.OptionalBool(params, "commit", true),
		TargetBranch: api.OptionalString(params, "target_branch", ""),
	}
	job, err := params.NetBoxClient.MergeBranch(params.Context, id, opts)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to merge branch: %w", err)), nil
	}
	return toolsets.ObjectResult(job), nil
}
