package netbox

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"k8s.io/utils/ptr"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/toolsets"
)

func initObjects() []api.ServerTool {
	return []api.ServerTool{
		{Tool: api.Tool{
			Name: "get_objects",
			Description: "Get objects from NetBox based on their type and filters.\n" +
				"Filters use NetBox REST API query parameters, e.g. {\"site\": \"dc1\", \"status\": \"active\"} or {\"role\": [\"core\", \"edge\"]}. " +
				"Every page is fetched, narrow the result with filters for large inventories." + validObjectTypes,
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"object_type": objectTypeProperty(),
					"filters": {
						Type:        "object",
						Description: "Optional NetBox API filters (field lookups such as name, slug, site, tenant, status, q, id__in, name__ic)",
					},
				},
				Required: []string{"object_type"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Objects: List",
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: objectsGet},
		{Tool: api.Tool{
			Name:        "get_object_by_id",
			Description: "Get detailed information about a specific NetBox object by its ID" + validObjectTypes,
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"object_type": objectTypeProperty(),
					"object_id": {
						Type:        "integer",
						Description: "The numeric ID of the object",
					},
				},
				Required: []string{"object_type", "object_id"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Objects: Get",
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: objectsGetByID},
		{Tool: api.Tool{
			Name: "create_object",
			Description: "Create a new object in NetBox.\n" +
				"Example for a device: {\"name\": \"edge-router-01\", \"device_type\": 1, \"role\": 2, \"site\": 3, \"status\": \"active\"}. " +
				"Related objects are referenced by ID. When a branch is active the object is created in that branch." + validObjectTypes,
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"object_type": objectTypeProperty(),
					"data": {
						Type:        "object",
						Description: "The fields of the object to create",
					},
				},
				Required: []string{"object_type", "data"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Objects: Create",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(false),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: objectsCreate},
		{Tool: api.Tool{
			Name: "update_object",
			Description: "Update an existing NetBox object, only the provided fields are changed.\n" +
				"Example: {\"status\": \"planned\", \"description\": \"Decommission in Q3\"}" + validObjectTypes,
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"object_type": objectTypeProperty(),
					"object_id": {
						Type:        "integer",
						Description: "The numeric ID of the object to update",
					},
					"data": {
						Type:        "object",
						Description: "The fields to update",
					},
				},
				Required: []string{"object_type", "object_id", "data"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Objects: Update",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(true),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: objectsUpdate},
		{Tool: api.Tool{
			Name:        "delete_object",
			Description: "Delete a NetBox object by its ID. Returns {\"deleted\": false} when the object does not exist" + validObjectTypes,
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"object_type": objectTypeProperty(),
					"object_id": {
						Type:        "integer",
						Description: "The numeric ID of the object to delete",
					},
				},
				Required: []string{"object_type", "object_id"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Objects: Delete",
				ReadOnlyHint:    ptr.To(false),
				DestructiveHint: ptr.To(true),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: objectsDelete},
	}
}

func objectsGet(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	objectType, err := objectTypeArgument(params)
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	filters, err := api.OptionalObject(params, "filters")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	objects, err := params.NetBoxClient.Get(params.Context, objectType, filters)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to get %s: %w", objectType, err)), nil
	}
	return toolsets.ListResult(params, objects), nil
}

func objectsGetByID(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	objectType, err := objectTypeArgument(params)
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	id, err := api.RequiredInt64(params, "object_id")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	object, err := params.NetBoxClient.GetByID(params.Context, objectType, id)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to get %s: %w", objectType, err)), nil
	}
	return toolsets.ObjectResult(object), nil
}

func objectsCreate(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	objectType, err := objectTypeArgument(params)
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	data, err := api.RequiredObject(params, "data")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	object, err := params.NetBoxClient.Create(params.Context, objectType, data)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to create %s: %w", objectType, err)), nil
	}
	return toolsets.ObjectResult(object), nil
}

func objectsUpdate(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	objectType, err := objectTypeArgument(params)
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	id, err := api.RequiredInt64(params, "object_id")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	data, err := api.RequiredObject(params, "data")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	object, err := params.NetBoxClient.Update(params.Context, objectType, id, data)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to update %s: %w", objectType, err)), nil
	}
	return toolsets.ObjectResult(object), nil
}

func objectsDelete(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	objectType, err := objectTypeArgument(params)
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	id, err := api.RequiredInt64(params, "object_id")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	deleted, err := params.NetBoxClient.Delete(params.Context, objectType, id)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to delete %s: %w", objectType, err)), nil
	}
	return toolsets.DeletedResult(deleted), nil
}
