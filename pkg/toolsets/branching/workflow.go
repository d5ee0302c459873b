package branching

import (
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/netbox"
)

func initWorkflow() []api.ServerPrompt {
	return []api.ServerPrompt{
		{
			Prompt: api.Prompt{
				Name:        "netbox_branch_workflow",
				Title:       "NetBox Branch Workflow",
				Description: "Stage NetBox changes in a branch, review them and merge them into main",
				Arguments: []api.PromptArgument{
					{
						Name:        "branch_name",
						Description: "Name of the branch holding the changes",
						Required:    true,
					},
					{
						Name:        "changes",
						Description: "Optional description of the changes to make",
						Required:    false,
					},
				},
			},
			Handler: workflowHandler,
		},
	}
}

func workflowHandler(params api.PromptHandlerParams) (*api.PromptCallResult, error) {
	branchName := params.Argument("branch_name")
	if branchName == "" {
		return nil, fmt.Errorf("branch_name argument is required")
	}
	changes := params.Argument("changes")

	existing := ""
	if params.NetBoxClient != nil {
		branches, err := params.NetBoxClient.ListBranches(params.Context, netbox.Filters{"name": branchName})
		if err != nil {
			klog.V(1).Infof("Unable to look up branch %s: %v", branchName, err)
		} else if len(branches) > 0 {
			existing = fmt.Sprintf("A branch named %q already exists (id: %v, schema_id: %v, status: %v). Reuse it instead of creating a new one.",
				branchName, branches[0]["id"], branches[0]["schema_id"], branches[0]["status"])
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Make the following NetBox changes in the branch %q", branchName))
	if changes != "" {
		sb.WriteString(": " + changes)
	}
	sb.WriteString(".\n\n")
	if existing != "" {
		sb.WriteString(existing + "\n\n")
	}
	sb.WriteString("Follow these steps:\n")
	if existing == "" {
		sb.WriteString(fmt.Sprintf("1. Create the branch with create_branch (name: %q) and poll get_branch until its status is 'ready'.\n", branchName))
	} else {
		sb.WriteString("1. Check with get_branch that the branch status is 'ready'.\n")
	}
	sb.WriteString("2. Activate it with set_active_branch using its schema_id (not its numeric id).\n")
	sb.WriteString("3. Apply the changes with create_object, update_object, delete_object or the bulk tools. Verify them with get_objects.\n")
	sb.WriteString("4. Run merge_branch with commit=false to review the result of a dry run, and summarize it for the user.\n")
	sb.WriteString("5. Only after the user confirms, run merge_branch with commit=true.\n")
	sb.WriteString("6. Call clear_active_branch so that following operations target main again.\n")

	return api.NewPromptCallResult(
		"NetBox branch workflow for "+branchName,
		api.UserMessage(sb.String()),
		api.AssistantMessage("I'll stage the changes in the branch, show you the dry-run merge result and wait for your confirmation before committing."),
	), nil
}
