package branching

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/netbox"
	"github.com/netbox-community/netbox-mcp-server/pkg/netbox/fakeclient"
)

type toolCallRequest map[string]any

func (r toolCallRequest) GetArguments() map[string]any {
	return r
}

type ToolsetSuite struct {
	suite.Suite
	client *fakeclient.FakeNetBoxClient
}

func (s *ToolsetSuite) SetupTest() {
	s.client = fakeclient.NewFakeNetBoxClient(
		fakeclient.WithBranch(netbox.Object{"id": 7, "name": "rack-a1", "schema_id": "td5smq0f", "status": "ready"}),
		fakeclient.WithBranch(netbox.Object{"id": 8, "name": "cleanup", "schema_id": "k2lw9x1p", "status": "merged"}),
	)
}

func (s *ToolsetSuite) callTool(name string, args map[string]any) *api.ToolCallResult {
	for _, tool := range (&Toolset{}).GetTools() {
		if tool.Tool.Name != name {
			continue
		}
		result, err := tool.Handler(api.ToolHandlerParams{
			Context:         context.Background(),
			NetBoxClient:    s.client,
			ToolCallRequest: toolCallRequest(args),
		})
		s.Require().NoError(err, "tool %s returned a protocol error", name)
		s.Require().NotNil(result)
		return result
	}
	s.FailNow("tool not found", name)
	return nil
}

func (s *ToolsetSuite) TestTools() {
	tools := (&Toolset{}).GetTools()
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Tool.Name)
	}
	s.ElementsMatch([]string{
		"get_branches", "get_branch", "create_branch", "update_branch", "delete_branch", "merge_branch",
		"set_active_branch", "clear_active_branch",
	}, names)
}

func (s *ToolsetSuite) TestGetBranches() {
	s.Run("lists every branch", func() {
		result := s.callTool("get_branches", map[string]any{})
		s.Require().NoError(result.Error)
		s.Equal(2, result.StructuredContent.(map[string]any)["count"])
	})
	s.Run("applies filters", func() {
		result := s.callTool("get_branches", map[string]any{"filters": map[string]any{"status": "ready"}})
		s.Require().NoError(result.Error)
		var branches []map[string]any
		s.Require().NoError(json.Unmarshal([]byte(result.Content), &branches))
		s.Require().Len(branches, 1)
		s.Equal("rack-a1", branches[0]["name"])
	})
	s.Run("get_branch reports missing branches", func() {
		result := s.callTool("get_branch", map[string]any{"branch_id": float64(99)})
		s.True(errors.Is(result.Error, netbox.ErrNotFound))
		s.Contains(result.Error.Error(), "failed to get branch:")
	})
}

func (s *ToolsetSuite) TestBranchLifecycle() {
	var id float64
	var schemaID string
	s.Run("create_branch returns the branch", func() {
		result := s.callTool("create_branch", map[string]any{"name": "dc3-build", "description": "New data center"})
		s.Require().NoError(result.Error)
		var branch map[string]any
		s.Require().NoError(json.Unmarshal([]byte(result.Content), &branch))
		s.Equal("dc3-build", branch["name"])
		s.Equal("New data center", branch["description"])
		id = branch["id"].(float64)
		schemaID = branch["schema_id"].(string)
	})
	s.Run("create_branch passes the base branch", func() {
		result := s.callTool("create_branch", map[string]any{"name": "dc3-cabling", "base_branch": schemaID})
		s.Require().NoError(result.Error)
		var branch map[string]any
		s.Require().NoError(json.Unmarshal([]byte(result.Content), &branch))
		s.Equal(schemaID, branch["base_branch"])
	})
	s.Run("create_branch requires a name", func() {
		result := s.callTool("create_branch", map[string]any{"name": ""})
		s.ErrorContains(result.Error, "name parameter cannot be empty")
	})
	s.Run("update_branch changes the description", func() {
		result := s.callTool("update_branch", map[string]any{"branch_id": id, "data": map[string]any{"description": "DC3"}})
		s.Require().NoError(result.Error)
		s.Contains(result.Content, `"description": "DC3"`)
	})
	s.Run("changes made in the active branch are merged", func() {
		result := s.callTool("set_active_branch", map[string]any{"schema_id": schemaID})
		s.Require().NoError(result.Error)
		_, err := s.client.Create(context.Background(), netbox.Sites, netbox.Object{"name": "dc3"})
		s.Require().NoError(err)
		s.callTool("clear_active_branch", map[string]any{})

		dryRun := s.callTool("merge_branch", map[string]any{"branch_id": id, "commit": false})
		s.Require().NoError(dryRun.Error)
		sites, err := s.client.Get(context.Background(), netbox.Sites, nil)
		s.Require().NoError(err)
		s.Empty(sites, "dry run must not change main")

		merged := s.callTool("merge_branch", map[string]any{"branch_id": id})
		s.Require().NoError(merged.Error)
		s.Contains(merged.Content, `"commit": true`)
		sites, err = s.client.Get(context.Background(), netbox.Sites, nil)
		s.Require().NoError(err)
		s.Len(sites, 1)
	})
	s.Run("delete_branch deletes the branch", func() {
		result := s.callTool("delete_branch", map[string]any{"branch_id": id})
		s.Require().NoError(result.Error)
		s.JSONEq(`{"deleted":true}`, result.Content)
	})
	s.Run("delete_branch reports not deleted for missing branch", func() {
		result := s.callTool("delete_branch", map[string]any{"branch_id": id})
		s.Require().NoError(result.Error)
		s.JSONEq(`{"deleted":false}`, result.Content)
	})
}

func (s *ToolsetSuite) TestActiveBranch() {
	s.Run("set_active_branch scopes the client", func() {
		result := s.callTool("set_active_branch", map[string]any{"schema_id": "td5smq0f"})
		s.Require().NoError(result.Error)
		s.Equal("Active branch set to td5smq0f", result.Content)
		s.Equal(map[string]any{"active_branch": "td5smq0f"}, result.StructuredContent)
		s.Equal("td5smq0f", s.client.ActiveBranch())
	})
	s.Run("set_active_branch does not contact NetBox", func() {
		s.Empty(s.client.Calls())
	})
	s.Run("set_active_branch rejects empty schema_id", func() {
		result := s.callTool("set_active_branch", map[string]any{"schema_id": ""})
		s.Error(result.Error)
		s.Equal("td5smq0f", s.client.ActiveBranch())
	})
	s.Run("clear_active_branch clears the branch", func() {
		result := s.callTool("clear_active_branch", map[string]any{})
		s.Require().NoError(result.Error)
		s.Contains(result.Content, "Active branch cleared")
		s.Empty(s.client.ActiveBranch())
	})
	s.Run("clear_active_branch without active branch", func() {
		result := s.callTool("clear_active_branch", map[string]any{})
		s.Require().NoError(result.Error)
		s.Contains(result.Content, "No active branch")
	})
}

func (s *ToolsetSuite) TestBranchWorkflowPrompt() {
	prompts := (&Toolset{}).GetPrompts()
	s.Require().Len(prompts, 1)
	prompt := prompts[0]
	s.Equal("netbox_branch_workflow", prompt.Prompt.Name)
	call := func(args map[string]string) (*api.PromptCallResult, error) {
		return prompt.Handler(api.PromptHandlerParams{
			Context:      context.Background(),
			NetBoxClient: s.client,
			Arguments:    args,
		})
	}
	s.Run("new branch", func() {
		result, err := call(map[string]string{"branch_name": "dc3-build", "changes": "add site dc3"})
		s.Require().NoError(err)
		s.Require().Len(result.Messages, 2)
		s.Equal("user", result.Messages[0].Role)
		s.Contains(result.Messages[0].Text, `"dc3-build": add site dc3`)
		s.Contains(result.Messages[0].Text, "create_branch")
		s.Contains(result.Messages[0].Text, "commit=false")
		s.Equal("assistant", result.Messages[1].Role)
	})
	s.Run("existing branch", func() {
		result, err := call(map[string]string{"branch_name": "rack-a1"})
		s.Require().NoError(err)
		s.Contains(result.Messages[0].Text, "already exists")
		s.Contains(result.Messages[0].Text, "td5smq0f")
		s.NotContains(result.Messages[0].Text, "create_branch")
	})
	s.Run("missing branch_name", func() {
		_, err := call(map[string]string{})
		s.ErrorContains(err, "branch_name")
	})
}

func TestToolset(t *testing.T) {
	suite.Run(t, new(ToolsetSuite))
}
