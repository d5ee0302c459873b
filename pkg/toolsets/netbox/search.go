package netbox

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	internalnb "github.com/netbox-community/netbox-mcp-server/pkg/netbox"
	"github.com/netbox-community/netbox-mcp-server/pkg/output"
)

const defaultSearchLimit = 10

func initSearch() []api.ServerTool {
	return []api.ServerTool{
		{Tool: api.Tool{
			Name: "search_netbox",
			Description: "Perform a free-text search across multiple NetBox object types, e.g. a hostname, an IP address, a serial number or a circuit ID.\n" +
				"Returns the matches grouped by object type, types without matches are omitted. " +
				"Use get_object_by_id to retrieve the full details of a match." + validObjectTypes,
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {
						Type:        "string",
						Description: "Search term",
					},
					"object_types": {
						Type:        "array",
						Description: "Optional object types to search (defaults to devices, sites, ip-addresses, interfaces, racks, vlans, circuits and virtual-machines)",
						Items:       &jsonschema.Schema{Type: "string"},
					},
					"limit": {
						Type:        "integer",
						Description: "Optional maximum number of results per object type (default 10)",
						Minimum:     ptr.To(float64(1)),
					},
				},
				Required: []string{"query"},
			},
			Annotations: api.ToolAnnotations{
				Title:           "Search",
				ReadOnlyHint:    ptr.To(true),
				DestructiveHint: ptr.To(false),
				IdempotentHint:  ptr.To(true),
				OpenWorldHint:   ptr.To(true),
			},
		}, Handler: search},
	}
}

func search(params api.ToolHandlerParams) (*api.ToolCallResult, error) {
	query, err := api.RequiredString(params, "query")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	cfg := toolsetConfig(params.ExtendedConfigProvider)
	names, err := api.OptionalStringList(params, "object_types")
	if err != nil {
		return api.NewToolCallResult("", err), nil
	}
	if len(names) == 0 {
		names = cfg.SearchObjectTypes
	}
	if len(names) == 0 {
		names = DefaultSearchObjectTypes
	}
	objectTypes := make([]internalnb.ObjectType, 0, len(names))
	for _, name := range names {
		objectType, err := internalnb.ParseObjectType(name)
		if err != nil {
			return api.NewToolCallResult("", err), nil
		}
		objectTypes = append(objectTypes, objectType)
	}
	limit := int64(defaultSearchLimit)
	if cfg.SearchLimit > 0 {
		limit = int64(cfg.SearchLimit)
	}
	if limit, err = api.OptionalInt64(params, "limit", limit); err != nil {
		return api.NewToolCallResult("", err), nil
	}
	if limit < 1 {
		return api.NewToolCallResult("", fmt.Errorf("limit must be a positive integer")), nil
	}

	results := make(map[string][]internalnb.Object)
	for _, objectType := range objectTypes {
		klog.V(3).Infof("Searching %s for %q", objectType, query)
		objects, err := params.NetBoxClient.Search(params.Context, objectType, query, int(limit))
		if err != nil {
			return api.NewToolCallResult("", fmt.Errorf("failed to search %s: %w", objectType, err)), nil
		}
		if len(objects) > 0 {
			results[objectType.String()] = objects
		}
	}
	text, err := output.MarshalJson(results)
	if err != nil {
		return api.NewToolCallResult("", fmt.Errorf("failed to render search results: %w", err)), nil
	}
	return api.NewStructuredResult(text, results), nil
}
