package output

import (
	"encoding/json"
	"fmt"
	"io"
)

type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ReadOnly    bool   `json:"readOnly"`
}

// Print renders tool-specific or generic output.
func Print(w io.Writer, tool string, raw string, jsonOut bool) {
	switch tool {
	case "get_objects", "search_netbox", "get_branches", "bulk_create_objects", "bulk_update_objects":
		PrintObjectList(w, raw, jsonOut)
	default:
		if jsonOut {
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err == nil {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				_ = enc.Encode(v)
				return
			}
		}
		_, _ = fmt.Fprintln(w, raw)
	}
}

// PrintToolList prints a simple list of tools (name and description).
func PrintToolList(w io.Writer, tools []ToolInfo, jsonOut bool) {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(tools)
		return
	}
	if len(tools) == 0 {
		_, _ = fmt.Fprintln(w, "No NetBox tools available")
		return
	}
	for _, t := range tools {
		mode := "rw"
		if t.ReadOnly {
			mode = "ro"
		}
		_, _ = fmt.Fprintf(w, "- %s [%s]: %s\n", t.Name, mode, t.Description)
	}
}
