package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/netbox-community/netbox-mcp-server/pkg/output"
)

type ServerTool struct {
	Tool    Tool
	Handler ToolHandlerFunc
}

type Toolset interface {
	// GetName returns the name of the toolset, as used in the configuration and CLI flags.
	// Examples: "netbox", "branching"
	GetName() string
	// GetDescription returns a human-readable description of the toolset.
	GetDescription() string
	GetTools() []ServerTool
	// GetPrompts returns the prompts provided by this toolset, or nil.
	GetPrompts() []ServerPrompt
}

type ToolCallRequest interface {
	GetArguments() map[string]any
}

type ToolCallResult struct {
	// Content is the text returned to the LLM.
	Content string
	// StructuredContent is an optional JSON-serializable value sent as structuredContent.
	// Leave nil when the tool only produces text.
	StructuredContent any
	// Error (non-protocol) to send back to the LLM.
	Error error
}

// NewToolCallResult creates a ToolCallResult with text content only.
func NewToolCallResult(content string, err error) *ToolCallResult {
	return &ToolCallResult{Content: content, Error: err}
}

// NewStructuredResult pairs a text rendering of a successful call with its structured content.
func NewStructuredResult(text string, structured any) *ToolCallResult {
	return &ToolCallResult{Content: text, StructuredContent: structured}
}

// NewJSONResult uses the compact JSON encoding of structured as the text content.
func NewJSONResult(structured any) *ToolCallResult {
	b, err := json.Marshal(structured)
	if err != nil {
		return NewToolCallResult("", fmt.Errorf("failed to encode result: %w", err))
	}
	return NewStructuredResult(string(b), structured)
}

type ToolHandlerParams struct {
	context.Context
	ExtendedConfigProvider
	NetBoxClient
	ToolCallRequest
	ListOutput output.Output
}

type ToolHandlerFunc func(params ToolHandlerParams) (*ToolCallResult, error)

type Tool struct {
	// Name is the unique programmatic name of the tool.
	Name string `json:"name"`
	// Description is the hint given to the model about what the tool does.
	Description string          `json:"description,omitempty"`
	Annotations ToolAnnotations `json:"annotations"`
	// InputSchema is the JSON Schema object of the tool arguments.
	InputSchema *jsonschema.Schema
}

type ToolAnnotations struct {
	Title string `json:"title,omitempty"`
	// ReadOnlyHint marks tools that never modify NetBox data.
	ReadOnlyHint *bool `json:"readOnlyHint,omitempty"`
	// DestructiveHint marks tools that may remove or overwrite data (only meaningful when ReadOnlyHint is false).
	DestructiveHint *bool `json:"destructiveHint,omitempty"`
	// IdempotentHint marks tools whose repeated calls with the same arguments have no additional effect.
	IdempotentHint *bool `json:"idempotentHint,omitempty"`
	// OpenWorldHint marks tools interacting with external systems.
	OpenWorldHint *bool `json:"openWorldHint,omitempty"`
}

func ToRawMessage(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
