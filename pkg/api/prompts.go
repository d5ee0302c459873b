package api

import (
	"context"
	"strings"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ServerPrompt is a prompt served by the MCP server together with the handler that renders it.
type ServerPrompt struct {
	Prompt  Prompt
	Handler PromptHandlerFunc
}

// Prompt holds the metadata of a prompt and, for prompts defined in the configuration,
// the message templates rendered by the default handler.
//
//	[[prompts]]
//	name = "audit-site"
//	[[prompts.arguments]]
//	name = "site"
//	required = true
//	[[prompts.messages]]
//	role = "user"
//	content = "List the devices of site {{site}}"
type Prompt struct {
	Name        string           `yaml:"name" json:"name" toml:"name"`
	Title       string           `yaml:"title,omitempty" json:"title,omitempty" toml:"title,omitempty"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Arguments   []PromptArgument `yaml:"arguments,omitempty" json:"arguments,omitempty" toml:"arguments,omitempty"`
	Templates   []PromptTemplate `yaml:"messages,omitempty" json:"messages,omitempty" toml:"messages,omitempty"`
}

type PromptArgument struct {
	Name        string `yaml:"name" json:"name" toml:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Required    bool   `yaml:"required" json:"required" toml:"required"`
}

// PromptTemplate is a configured message whose content may reference arguments as {{name}}.
type PromptTemplate struct {
	Role    string `yaml:"role" json:"role" toml:"role"`
	Content string `yaml:"content" json:"content" toml:"content"`
}

// PromptMessage is a rendered text message returned by a prompt handler.
type PromptMessage struct {
	Role string
	Text string
}

// UserMessage returns a PromptMessage with the user role.
func UserMessage(text string) PromptMessage {
	return PromptMessage{Role: RoleUser, Text: text}
}

// AssistantMessage returns a PromptMessage with the assistant role.
func AssistantMessage(text string) PromptMessage {
	return PromptMessage{Role: RoleAssistant, Text: text}
}

type PromptCallResult struct {
	Description string
	Messages    []PromptMessage
}

func NewPromptCallResult(description string, messages ...PromptMessage) *PromptCallResult {
	return &PromptCallResult{Description: description, Messages: messages}
}

// PromptHandlerParams is passed to every prompt handler.
// NetBoxClient may be nil when the server has no NetBox connection configured.
type PromptHandlerParams struct {
	context.Context
	NetBoxClient
	Arguments map[string]string
}

// Argument returns the trimmed value of the named argument, or an empty string.
func (p PromptHandlerParams) Argument(name string) string {
	return strings.TrimSpace(p.Arguments[name])
}

type PromptHandlerFunc func(params PromptHandlerParams) (*PromptCallResult, error)
