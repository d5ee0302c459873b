package prompts

import (
	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

func named(names ...string) []api.ServerPrompt {
	result := make([]api.ServerPrompt, 0, len(names))
	for _, name := range names {
		result = append(result, api.ServerPrompt{Prompt: api.Prompt{Name: name}})
	}
	return result
}

func promptNames(prompts []api.ServerPrompt) []string {
	result := make([]string, 0, len(prompts))
	for _, prompt := range prompts {
		result = append(result, prompt.Prompt.Name)
	}
	return result
}

func (s *PromptsTestSuite) TestMergePrompts() {
	cases := []struct {
		name     string
		base     []api.ServerPrompt
		override []api.ServerPrompt
		expected []string
	}{
		{"both empty", nil, nil, []string{}},
		{"only base", named("netbox_branch_workflow", "audit-site"), nil, []string{"netbox_branch_workflow", "audit-site"}},
		{"only override", nil, named("audit-site"), []string{"audit-site"}},
		{"disjoint sets are appended", named("netbox_branch_workflow"), named("audit-site", "audit-rack"),
			[]string{"netbox_branch_workflow", "audit-site", "audit-rack"}},
		{"overridden prompts move to the end", named("netbox_branch_workflow", "audit-site", "audit-rack"), named("audit-site"),
			[]string{"netbox_branch_workflow", "audit-rack", "audit-site"}},
		{"everything overridden", named("audit-site", "audit-rack"), named("audit-rack", "audit-site"),
			[]string{"audit-rack", "audit-site"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, promptNames(MergePrompts(tc.base, tc.override)))
		})
	}
	s.Run("override definition wins", func() {
		base := []api.ServerPrompt{{Prompt: api.Prompt{Name: "netbox_branch_workflow", Description: "built-in"}}}
		override := []api.ServerPrompt{{Prompt: api.Prompt{Name: "netbox_branch_workflow", Description: "from config"}}}
		result := MergePrompts(base, override)
		s.Require().Len(result, 1)
		s.Equal("from config", result[0].Prompt.Description)
	})
	s.Run("inputs are not modified", func() {
		base := named("netbox_branch_workflow", "audit-site")
		_ = MergePrompts(base, named("audit-site"))
		s.Equal([]string{"netbox_branch_workflow", "audit-site"}, promptNames(base))
	})
}
