package api

import (
	"encoding/json"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type PromptsSuite struct {
	suite.Suite
}

func (s *PromptsSuite) TestNewPromptCallResult() {
	s.Run("keeps messages in order", func() {
		result := NewPromptCallResult("audit dc1", UserMessage("list devices"), AssistantMessage("on it"))
		s.Equal("audit dc1", result.Description)
		s.Equal([]PromptMessage{
			{Role: RoleUser, Text: "list devices"},
			{Role: RoleAssistant, Text: "on it"},
		}, result.Messages)
	})
	s.Run("without messages", func() {
		s.Empty(NewPromptCallResult("empty").Messages)
	})
}

func (s *PromptsSuite) TestArgument() {
	params := PromptHandlerParams{Arguments: map[string]string{"site": "  dc1 "}}
	s.Run("trims values", func() {
		s.Equal("dc1", params.Argument("site"))
	})
	s.Run("missing argument is empty", func() {
		s.Empty(params.Argument("rack"))
	})
	s.Run("nil arguments", func() {
		s.Empty(PromptHandlerParams{}.Argument("site"))
	})
}

// The same prompt definition is accepted from TOML configuration, YAML and JSON.
func (s *PromptsSuite) TestPromptFormats() {
	expected := Prompt{
		Name:      "audit-site",
		Arguments: []PromptArgument{{Name: "site", Description: "Site slug", Required: true}},
		Templates: []PromptTemplate{{Role: RoleUser, Content: "List the devices of site {{site}}"}},
	}
	s.Run("toml", func() {
		var cfg struct {
			Prompts []Prompt `toml:"prompts"`
		}
		_, err := toml.Decode(`
			[[prompts]]
			name = "audit-site"
			[[prompts.arguments]]
			name = "site"
			description = "Site slug"
			required = true
			[[prompts.messages]]
			role = "user"
			content = "List the devices of site {{site}}"
		`, &cfg)
		s.Require().NoError(err)
		s.Require().Len(cfg.Prompts, 1)
		s.Equal(expected, cfg.Prompts[0])
	})
	s.Run("yaml", func() {
		var prompt Prompt
		s.Require().NoError(yaml.Unmarshal([]byte(`
name: audit-site
arguments:
  - name: site
    description: Site slug
    required: true
messages:
  - role: user
    content: "List the devices of site {{site}}"
`), &prompt))
		s.Equal(expected, prompt)
	})
	s.Run("json", func() {
		var prompt Prompt
		s.Require().NoError(json.Unmarshal([]byte(`{
			"name": "audit-site",
			"arguments": [{"name": "site", "description": "Site slug", "required": true}],
			"messages": [{"role": "user", "content": "List the devices of site {{site}}"}]
		}`), &prompt))
		s.Equal(expected, prompt)
	})
	s.Run("optional fields are omitted from json", func() {
		data, err := json.Marshal(Prompt{Name: "bare"})
		s.Require().NoError(err)
		s.JSONEq(`{"name":"bare"}`, string(data))
	})
}

func TestPrompts(t *testing.T) {
	suite.Run(t, new(PromptsSuite))
}
