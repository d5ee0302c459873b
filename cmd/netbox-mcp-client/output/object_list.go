package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

func PrintObjectList(w io.Writer, raw string, jsonOut bool) {
	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// Single objects and non JSON output are printed raw
		_, _ = fmt.Fprintln(w, raw)
		return
	}
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(items)
		return
	}
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "No objects found")
		return
	}

	sort.SliceStable(items, func(i, j int) bool { return objectID(items[i]) < objectID(items[j]) })
	for _, item := range items {
		status := statusOf(item)
		line := fmt.Sprintf("- #%s %s", idString(item["id"]), displayName(item))
		if status != "" {
			line += fmt.Sprintf(" %s%s%s", statusColor(status), status, colorReset)
		}
		_, _ = fmt.Fprintln(w, line)
	}
	_, _ = fmt.Fprintf(w, "%d object(s)\n", len(items))
}

func objectID(item map[string]any) float64 {
	if id, ok := item["id"].(float64); ok {
		return id
	}
	return 0
}

func idString(v any) string {
	if id, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", id)
	}
	return fmt.Sprint(v)
}

func displayName(item map[string]any) string {
	for _, key := range []string{"display", "name", "address", "prefix", "cid", "schema_id"} {
		if v, ok := item[key].(string); ok && v != "" {
			return v
		}
	}
	return "<unnamed>"
}

// statusOf supports plain string statuses and NetBox choice objects ({"value": ..., "label": ...}).
func statusOf(item map[string]any) string {
	switch status := item["status"].(type) {
	case string:
		return status
	case map[string]any:
		if v, ok := status["value"].(string); ok {
			return v
		}
	}
	return ""
}

func statusColor(status string) string {
	switch strings.ToLower(status) {
	case "active", "ready", "merged", "online", "connected":
		return colorGreen
	case "failed", "offline", "decommissioning", "deprecated", "conflicts":
		return colorRed
	default:
		return colorYellow
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
)
