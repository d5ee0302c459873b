package toolsets

import (
	"fmt"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/output"
)

// ListResult renders objects with the configured list output and attaches them as structured content.
func ListResult(params api.ToolHandlerParams, objects []map[string]any) *api.ToolCallResult {
	out := params.ListOutput
	if out == nil {
		out = output.Json
	}
	text, err := out.PrintObj(objects)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to render results: %w", err))
	}
	if len(objects) == 0 && out != output.Json {
		text = "No objects found"
	}
	return api.NewStructuredResult(text, map[string]any{
		"count":   len(objects),
		"results": objects,
	})
}

// ObjectResult renders a single object as indented JSON.
func ObjectResult(object map[string]any) *api.ToolCallResult {
	text, err := output.MarshalJson(object)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to render result: %w", err))
	}
	return api.NewStructuredResult(text, object)
}

// DeletedResult reports the outcome of a delete operation as {"deleted": bool}.
func DeletedResult(deleted bool) *api.ToolCallResult {
	return api.NewJSONResult(map[string]any{"deleted": deleted})
}
