package mcp

import (
	"bytes"
	"flag"
	"strconv"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/suite"
	"k8s.io/klog/v2"
	"k8s.io/klog/v2/textlogger"

	"github.com/netbox-community/netbox-mcp-server/internal/test"
	"github.com/netbox-community/netbox-mcp-server/pkg/config"
	"github.com/netbox-community/netbox-mcp-server/pkg/netbox"
	"github.com/netbox-community/netbox-mcp-server/pkg/netbox/fakeclient"
)

type BaseMcpSuite struct {
	suite.Suite
	*test.McpClient
	mcpServer *Server
	Cfg       *config.StaticConfig
	NetBox    *fakeclient.FakeNetBoxClient
}

func (s *BaseMcpSuite) SetupTest() {
	s.Cfg = config.Default()
	s.NetBox = fakeclient.NewFakeNetBoxClient(
		fakeclient.WithObjects(netbox.Devices,
			netbox.Object{"id": 1, "name": "edge-router-01", "status": "active", "site": "dc1"},
			netbox.Object{"id": 2, "name": "core-switch-01", "status": "planned", "site": "dc1"},
		),
		fakeclient.WithObjects(netbox.Sites,
			netbox.Object{"id": 10, "name": "dc1", "slug": "dc1"},
		),
		fakeclient.WithBranch(netbox.Object{"id": 7, "name": "rack-a1", "schema_id": "td5smq0f", "status": "ready"}),
	)
}

func (s *BaseMcpSuite) TearDownTest() {
	if s.McpClient != nil {
		s.Close()
		s.McpClient = nil
	}
	if s.mcpServer != nil {
		_ = s.mcpServer.Shutdown(s.T().Context())
		s.mcpServer = nil
	}
}

func (s *BaseMcpSuite) InitMcpClient(options ...test.McpClientOption) {
	var err error
	s.mcpServer, err = NewServer(Configuration{StaticConfig: s.Cfg}, WithNetBoxClient(s.NetBox))
	s.Require().NoError(err, "Expected no error creating MCP server")
	s.McpClient = test.NewInMemoryMcpClient(s.T(), s.mcpServer, options...)
}

// captureLogs redirects klog to a buffer at the provided verbosity until the returned function is called.
func captureLogs(t *testing.T, verbosity int) (*bytes.Buffer, func()) {
	t.Helper()
	buffer := &bytes.Buffer{}
	state := klog.CaptureState()
	flags := flag.NewFlagSet("test", flag.ContinueOnError)
	klog.InitFlags(flags)
	_ = flags.Set("v", strconv.Itoa(verbosity))
	klog.SetLogger(textlogger.NewLogger(textlogger.NewConfig(textlogger.Verbosity(verbosity), textlogger.Output(buffer))))
	return buffer, state.Restore
}

func textContent(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return ""
}

func toolNames(tools *mcp.ListToolsResult) []string {
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	return names
}
