package netbox

import (
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	internalnb "github.com/netbox-community/netbox-mcp-server/pkg/netbox"
)

func objectTypeProperty() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "NetBox object type, e.g. devices, sites, ip-addresses, interfaces (see the tool description for every valid value)",
	}
}

// validObjectTypes is appended to every tool description taking an object_type.
var validObjectTypes = "\n\nValid object_type values: " + strings.Join(internalnb.ObjectTypeNames(), ", ")

func objectTypeArgument(params api.ToolHandlerParams) (internalnb.ObjectType, error) {
	name, err := api.RequiredString(params, "object_type")
	if err != nil {
		return 0, err
	}
	return internalnb.ParseObjectType(name)
}
