// Package prompts serves the prompts defined in the [[prompts]] sections of the configuration.
package prompts

import (
	"fmt"
	"strings"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
)

// Validate checks prompts defined in the configuration before they are served.
func Validate(prompts []api.Prompt) error {
	seen := make(map[string]struct{}, len(prompts))
	for i, prompt := range prompts {
		if strings.TrimSpace(prompt.Name) == "" {
			return fmt.Errorf("prompt at index %d has no name", i)
		}
		if _, exists := seen[prompt.Name]; exists {
			return fmt.Errorf("prompt %q is defined more than once", prompt.Name)
		}
		seen[prompt.Name] = struct{}{}
		if len(prompt.Templates) == 0 {
			return fmt.Errorf("prompt %q has no messages", prompt.Name)
		}
		for _, template := range prompt.Templates {
			if template.Role != api.RoleUser && template.Role != api.RoleAssistant {
				return fmt.Errorf("prompt %q has a message with invalid role %q, must be %s or %s",
					prompt.Name, template.Role, api.RoleUser, api.RoleAssistant)
			}
		}
	}
	return nil
}

// ToServerPrompts attaches a template rendering handler to every configured prompt.
func ToServerPrompts(prompts []api.Prompt) []api.ServerPrompt {
	serverPrompts := make([]api.ServerPrompt, 0, len(prompts))
	for _, prompt := range prompts {
		serverPrompts = append(serverPrompts, api.ServerPrompt{
			Prompt:  prompt,
			Handler: templateHandler(prompt),
		})
	}
	return serverPrompts
}

func templateHandler(prompt api.Prompt) api.PromptHandlerFunc {
	return func(params api.PromptHandlerParams) (*api.PromptCallResult, error) {
		for _, arg := range prompt.Arguments {
			if arg.Required && params.Argument(arg.Name) == "" {
				return nil, fmt.Errorf("required argument '%s' is missing", arg.Name)
			}
		}
		messages := make([]api.PromptMessage, 0, len(prompt.Templates))
		for _, template := range prompt.Templates {
			messages = append(messages, api.PromptMessage{
				Role: template.Role,
				Text: substituteArguments(template.Content, prompt.Arguments, params.Arguments),
			})
		}
		return api.NewPromptCallResult(prompt.Description, messages...), nil
	}
}

// substituteArguments replaces {{name}} placeholders of declared arguments.
// Placeholders of optional arguments that were not provided are removed,
// undeclared placeholders are left untouched.
func substituteArguments(content string, declared []api.PromptArgument, values map[string]string) string {
	pairs := make([]string, 0, 2*len(declared))
	for _, arg := range declared {
		placeholder := "{{" + arg.Name + "}}"
		if value, ok := values[arg.Name]; ok {
			pairs = append(pairs, placeholder, value)
		} else if !arg.Required {
			pairs = append(pairs, placeholder, "")
		}
	}
	if len(pairs) == 0 {
		return content
	}
	return strings.NewReplacer(pairs...).Replace(content)
}

// MergePrompts returns base followed by override, dropping base prompts that
// override redefines by name.
func MergePrompts(base, override []api.ServerPrompt) []api.ServerPrompt {
	overridden := make(map[string]bool, len(override))
	for _, prompt := range override {
		overridden[prompt.Prompt.Name] = true
	}
	result := make([]api.ServerPrompt, 0, len(base)+len(override))
	for _, prompt := range base {
		if !overridden[prompt.Prompt.Name] {
			result = append(result, prompt)
		}
	}
	return append(result, override...)
}
