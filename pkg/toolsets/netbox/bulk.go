package netbox

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"k8s.io/utils/ptr"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/toolsets"
)

func initBulk() []api.ServerTool {
	return []api.ServerTool{
		{Tool: api.Tool{
			Name: "bulk_create_objects",
			Description: "Create multiple NetBox objects of the same type in a single request.\n" +
				"Example: [{\"name\": \"vlan-100\", \"vid\": 100, \"site\": 1}, {\"name\": \"vlan-200\", \"vid\": 200, \"site\": 1}]. " +
				"NetBox applies the request atomically, either every object is created or none is." + validObjectTypes,
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"object_type": objectTypeProperty(),
					"data_list": {
						Type:        "array",
						Description: "The objects to create, must not be empty",
						Items:       &jsonschema.Schema{Type: "object"},
					},
				},
				Required: []string{"object_type", "data_list"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Objects: Bulk Create",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(false),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: objectsBulkCreate},
		{Tool: api.Tool{
			Name: "bulk_update_objects",
			Description: "Update multiple NetBox objects of the same type in a single request, every item must carry its 'id'.\n" +
				"Example: [{\"id\": 10, \"status\": \"active\"}, {\"id\": 11, \"status\": \"active\"}]" + validObjectTypes,
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"object_type": objectTypeProperty(),
					"data_list": {
						Type:        "array",
						Description: "The partial objects to update, each including its 'id'",
						Items:       &jsonschema.Schema{Type: "object"},
					},
				},
				Required: []string{"object_type", "data_list"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Objects: Bulk Update",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(true),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: objectsBulkUpdate},
		{Tool: api.Tool{
			Name:        "bulk_delete_objects",
			Description: "Delete multiple NetBox objects of the same type by their IDs in a single request" + validObjectTypes,
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"object_type": objectTypeProperty(),
					"id_list": {
						Type:        "array",
						Description: "The numeric IDs of the objects to delete, must not be empty",
						Items:       &jsonschema.Schema{Type: "integer"},
					},
				},
				Required: []string{"object_type", "id_list"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Objects: Bulk Delete",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(true),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: objectsBulkDelete},
	}
}

func objectsBulkCreate(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	objectType, err := objectTypeArgument(params)
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	data, err := api.RequiredObjectList(params, "data_list")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	objects, err := params.NetBoxClient.BulkCreate(params.Context, objectType, data)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to bulk create %s: %w", objectType, err)), nil
	}
	return toolsets.ListResult(params, objects), nil
}

func objectsBulkUpdate(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	objectType, err := objectTypeArgument(params)
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	data, err := api.RequiredObjectList(params, "data_list")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	objects, err := params.NetBoxClient.BulkUpdate(params.Context, objectType, data)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to bulk update %s: %w", objectType, err)), nil
	}
	return toolsets.ListResult(params, objects), nil
}

func objectsBulkDelete(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	objectType, err := objectTypeArgument(params)
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	ids, err := api.RequiredInt64List(params, "id_list")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	deleted, err := params.NetBoxClient.BulkDelete(params.Context, objectType, ids)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to bulk delete %s: %w", objectType, err)), nil
	}
	return toolsets.DeletedResult(deleted), nil
}
