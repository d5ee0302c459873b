// Command update-readme regenerates the toolset and tool reference sections of README.md.
package main

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/netbox-community/netbox-mcp-server/pkg/api"
	"github.com/netbox-community/netbox-mcp-server/pkg/toolsets"

	_ "github.com/netbox-community/netbox-mcp-server/pkg/toolsets/branching"
	_ "github.com/netbox-community/netbox-mcp-server/pkg/toolsets/netbox"
)

const (
	toolsetsStart = "<!-- AVAILABLE-TOOLSETS-START -->"
	toolsetsEnd   = "<!-- AVAILABLE-TOOLSETS-END -->"
	toolsStart    = "<!-- AVAILABLE-TOOLSETS-TOOLS-START -->"
	toolsEnd      = "<!-- AVAILABLE-TOOLSETS-TOOLS-END -->"
)

func main() {
	if len(os.Args) != 2 {
		_, _ = fmt.Fprintln(os.Stderr, "usage: update-readme README.md")
		os.Exit(2)
	}
	path, err := filepath.Localize(filepath.Clean(os.Args[1]))
	if err != nil {
		panic(err)
	}
	readme, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	if err = os.WriteFile(path, []byte(updateReadme(string(readme), toolsets.Toolsets())), 0o644); err != nil {
		panic(err)
	}
}

func updateReadme(readme string, sets []api.Toolset) string {
	readme = replaceBetweenMarkers(readme, toolsetsStart, toolsetsEnd, toolsetTable(sets))
	return replaceBetweenMarkers(readme, toolsStart, toolsEnd, toolReference(sets))
}

// toolsetTable renders a markdown table with columns padded to the widest cell.
func toolsetTable(sets []api.Toolset) string {
	rows := [][2]string{{"Toolset", "Description"}}
	for _, ts := range sets {
		rows = append(rows, [2]string{ts.GetName(), ts.GetDescription()})
	}
	var width [2]int
	for _, row := range rows {
		width[0] = max(width[0], len(row[0]))
		width[1] = max(width[1], len(row[1]))
	}
	var b strings.Builder
	for i, row := range rows {
		fmt.Fprintf(&b, "| %-*s | %-*s |\n", width[0], row[0], width[1], row[1])
		if i == 0 {
			fmt.Fprintf(&b, "|-%s-|-%s-|\n", strings.Repeat("-", width[0]), strings.Repeat("-", width[1]))
		}
	}
	return b.String()
}

// toolReference renders one collapsible block per toolset listing its tools and their arguments.
func toolReference(sets []api.Toolset) string {
	var b strings.Builder
	for _, ts := range sets {
		fmt.Fprintf(&b, "<details>\n\n<summary>%s</summary>\n\n", ts.GetName())
		for _, st := range ts.GetTools() {
			fmt.Fprintf(&b, "- **%s** - %s\n", st.Tool.Name, firstParagraph(st.Tool.Description))
			if schema := st.Tool.InputSchema; schema != nil {
				for _, name := range slices.Sorted(maps.Keys(schema.Properties)) {
					required := ""
					if slices.Contains(schema.Required, name) {
						required = " **(required)**"
					}
					prop := schema.Properties[name]
					fmt.Fprintf(&b, "  - `%s` (`%s`)%s - %s\n", name, prop.Type, required, prop.Description)
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("</details>\n\n")
	}
	return b.String()
}

// firstParagraph keeps tool reference entries on a single line.
func firstParagraph(description string) string {
	description, _, _ = strings.Cut(description, "\n\n")
	return strings.ReplaceAll(strings.TrimSpace(description), "\n", " ")
}

// replaceBetweenMarkers swaps whatever sits between start and end, content is returned as is
// when either marker is missing or they are out of order.
func replaceBetweenMarkers(content, start, end, replacement string) string {
	before, rest, found := strings.Cut(content, start)
	if !found {
		return content
	}
	_, after, found := strings.Cut(rest, end)
	if !found {
		return content
	}
	return before + start + "\n\n" + replacement + "\n" + end + after
}
