package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"github.com/netbox-community/netbox-mcp-server/cmd/netbox-mcp-client/output"
	"github.com/netbox-community/netbox-mcp-server/pkg/version"
)

type options struct {
	serverURL  string
	token      string
	authHdr    string
	toolName   string
	rawArgs    string
	objectType string
	jsonOut    bool
	listTools  bool
	timeout    time.Duration
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	o := options{}
	flags := pflag.NewFlagSet("netbox-mcp-client", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&o.serverURL, "server", getenvDefault("MCP_SERVER", "http://localhost:8080/mcp"), "MCP server URL (e.g. http://host:port/mcp)")
	flags.StringVar(&o.token, "token", os.Getenv("MCP_TOKEN"), "Bearer token (without 'Bearer ' prefix). If empty, tries AUTHORIZATION env var")
	flags.StringVar(&o.authHdr, "authorization", os.Getenv("AUTHORIZATION"), "Authorization header value (overrides --token). Example: 'Bearer eyJ...' ")
	flags.StringVar(&o.toolName, "tool", "", "Tool to call (e.g. get_objects). If empty, defaults to get_objects")
	flags.StringVar(&o.rawArgs, "args", "", `Tool arguments as a JSON object (e.g. '{"filters":{"status":"active"}}')`)
	flags.StringVar(&o.objectType, "object-type", "", "Shortcut for the object_type argument (e.g. devices)")
	flags.BoolVar(&o.jsonOut, "json", false, "If true, print JSON output instead of pretty formatting")
	flags.BoolVar(&o.listTools, "list-tools", false, "List all available tools and exit")
	flags.DurationVar(&o.timeout, "timeout", 30*time.Second, "Overall request timeout")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if o.authHdr == "" && o.token != "" {
		o.authHdr = "Bearer " + strings.TrimSpace(o.token)
	}

	toolArgs := map[string]any{}
	if strings.TrimSpace(o.rawArgs) != "" {
		if err := json.Unmarshal([]byte(o.rawArgs), &toolArgs); err != nil {
			_, _ = fmt.Fprintf(stderr, "invalid --args: %v\n", err)
			return 1
		}
	}
	if o.objectType != "" {
		if _, ok := toolArgs["object_type"]; !ok {
			toolArgs["object_type"] = o.objectType
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	httpClient := &http.Client{Timeout: o.timeout}
	if o.authHdr != "" {
		httpClient.Transport = &authorizationRoundTripper{authorization: o.authHdr, next: http.DefaultTransport}
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "netbox-mcp-client", Version: version.Version}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: o.serverURL, HTTPClient: httpClient}, nil)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to initialize client: %v\n", err)
		return 1
	}
	defer func() { _ = session.Close() }()

	if o.listTools {
		toolsRes, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "failed to list tools: %v\n", err)
			return 1
		}
		infos := make([]output.ToolInfo, 0, len(toolsRes.Tools))
		for _, t := range toolsRes.Tools {
			info := output.ToolInfo{Name: t.Name, Description: firstLine(t.Description)}
			if t.Annotations != nil {
				info.ReadOnly = t.Annotations.ReadOnlyHint
			}
			infos = append(infos, info)
		}
		output.PrintToolList(stdout, infos, o.jsonOut)
		return 0
	}

	toolName := strings.TrimSpace(o.toolName)
	if toolName == "" {
		toolName = "get_objects"
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: toolName, Arguments: toolArgs})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tool call failed: %v\n", err)
		return 2
	}

	if result.IsError {
		_, _ = fmt.Fprintf(stderr, "error: %s\n", firstText(result))
		return 3
	}

	output.Print(stdout, toolName, firstText(result), o.jsonOut)
	return 0
}

type authorizationRoundTripper struct {
	authorization string
	next          http.RoundTripper
}

func (a *authorizationRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", a.authorization)
	return a.next.RoundTrip(req)
}

func firstText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if t, ok := c.(*mcp.TextContent); ok {
			return t.Text
		}
	}
	return ""
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
