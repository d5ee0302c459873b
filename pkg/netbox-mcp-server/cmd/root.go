package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"k8s.io/cli-runtime/pkg/genericiooptions"
	"k8s.io/klog/v2"
	"k8s.io/klog/v2/textlogger"
	"k8s.io/kubectl/pkg/util/i18n"
	"k8s.io/kubectl/pkg/util/templates"

	"github.com/netbox-community/netbox-mcp-server/pkg/config"
	internalhttp "github.com/netbox-community/netbox-mcp-server/pkg/http"
	"github.com/netbox-community/netbox-mcp-server/pkg/mcp"
	"github.com/netbox-community/netbox-mcp-server/pkg/output"
	"github.com/netbox-community/netbox-mcp-server/pkg/telemetry"
	"github.com/netbox-community/netbox-mcp-server/pkg/toolsets"
	"github.com/netbox-community/netbox-mcp-server/pkg/version"
)

var (
	long     = templates.LongDesc(i18n.T("NetBox Model Context Protocol (MCP) server"))
	examples = templates.Examples(i18n.T(`
# show this help
netbox-mcp-server -h

# shows version information
netbox-mcp-server --version

# start STDIO server, NETBOX_URL and NETBOX_TOKEN are read from the environment
netbox-mcp-server

# start a STDIO server against a specific NetBox instance
netbox-mcp-server --netbox-url https://netbox.example.com --netbox-token 0123456789abcdef

# start a streamable HTTP and SSE server on port 8080 exposing only read-only tools
netbox-mcp-server --port 8080 --read-only

# start a server with the changes scoped to an existing branch
netbox-mcp-server --netbox-branch td5smq0f
`))
)

const (
	flagVersion               = "version"
	flagLogLevel              = "log-level"
	flagConfig                = "config"
	flagConfigDir             = "config-dir"
	flagPort                  = "port"
	flagSSEBaseUrl            = "sse-base-url"
	flagNetBoxURL             = "netbox-url"
	flagNetBoxToken           = "netbox-token"
	flagNetBoxBranch          = "netbox-branch"
	flagInsecureSkipTLSVerify = "insecure-skip-tls-verify"
	flagToolsets              = "toolsets"
	flagListOutput            = "list-output"
	flagReadOnly              = "read-only"
	flagDisableDestructive    = "disable-destructive"
	flagStateless             = "stateless"
)

type MCPServerOptions struct {
	Version               bool
	LogLevel              int
	Port                  string
	SSEBaseUrl            string
	NetBoxURL             string
	NetBoxToken           string
	NetBoxBranch          string
	InsecureSkipTLSVerify bool
	Toolsets              []string
	ListOutput            string
	ReadOnly              bool
	DisableDestructive    bool
	Stateless             bool

	ConfigPath   string
	ConfigDir    string
	StaticConfig *config.StaticConfig

	flags *pflag.FlagSet

	genericiooptions.IOStreams
}

func NewMCPServerOptions(streams genericiooptions.IOStreams) *MCPServerOptions {
	return &MCPServerOptions{
		IOStreams:    streams,
		StaticConfig: config.Default(),
	}
}

func NewMCPServer(streams genericiooptions.IOStreams) *cobra.Command {
	o := NewMCPServerOptions(streams)
	cmd := &cobra.Command{
		Use:     "netbox-mcp-server [command] [options]",
		Short:   "NetBox Model Context Protocol (MCP) server",
		Long:    long,
		Example: examples,
		RunE: func(c *cobra.Command, args []string) error {
			if err := o.Complete(c); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			if err := o.Run(); err != nil {
				return err
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&o.Version, flagVersion, o.Version, "Print version information and quit")
	cmd.Flags().IntVar(&o.LogLevel, flagLogLevel, o.LogLevel, "Set the log level (from 0 to 9)")
	cmd.Flags().StringVar(&o.ConfigPath, flagConfig, o.ConfigPath, "Path of the config file.")
	cmd.Flags().StringVar(&o.ConfigDir, flagConfigDir, o.ConfigDir, "Path of a drop-in directory with additional *.toml config files, merged in lexical order.")
	cmd.Flags().StringVar(&o.Port, flagPort, o.Port, "Start a streamable HTTP and SSE HTTP server on the specified port (e.g. 8080)")
	cmd.Flags().StringVar(&o.SSEBaseUrl, flagSSEBaseUrl, o.SSEBaseUrl, "SSE public base URL to use when sending the endpoint message (e.g. https://example.com)")
	cmd.Flags().StringVar(&o.NetBoxURL, flagNetBoxURL, o.NetBoxURL, "Base URL of the NetBox instance (e.g. https://netbox.example.com). Overrides "+config.EnvNetBoxURL+".")
	cmd.Flags().StringVar(&o.NetBoxToken, flagNetBoxToken, o.NetBoxToken, "NetBox API token. Overrides "+config.EnvNetBoxToken+".")
	cmd.Flags().StringVar(&o.NetBoxBranch, flagNetBoxBranch, o.NetBoxBranch, "Schema ID of the NetBox branch to activate at startup. Overrides "+config.EnvNetBoxBranch+".")
	cmd.Flags().BoolVar(&o.InsecureSkipTLSVerify, flagInsecureSkipTLSVerify, o.InsecureSkipTLSVerify, "If true, the NetBox server certificate will not be checked for validity")
	cmd.Flags().StringSliceVar(&o.Toolsets, flagToolsets, o.Toolsets, "Comma-separated list of MCP toolsets to use (available toolsets: "+strings.Join(toolsets.ToolsetNames(), ", ")+"). Defaults to "+strings.Join(o.StaticConfig.Toolsets, ", ")+".")
	cmd.Flags().StringVar(&o.ListOutput, flagListOutput, o.ListOutput, "Output format for object list operations (one of: "+strings.Join(output.Names, ", ")+"). Defaults to "+o.StaticConfig.ListOutput+".")
	cmd.Flags().BoolVar(&o.ReadOnly, flagReadOnly, o.ReadOnly, "If true, only tools annotated with readOnlyHint=true are exposed")
	cmd.Flags().BoolVar(&o.DisableDestructive, flagDisableDestructive, o.DisableDestructive, "If true, tools annotated with destructiveHint=true are disabled")
	cmd.Flags().BoolVar(&o.Stateless, flagStateless, o.Stateless, "If true, the streamable HTTP transport does not track sessions and tool list change notifications are disabled")

	return cmd
}

func (m *MCPServerOptions) Complete(cmd *cobra.Command) error {
	cnf, err := config.Read(m.ConfigPath, m.ConfigDir)
	if err != nil {
		return err
	}
	m.StaticConfig = cnf
	m.flags = cmd.Flags()

	m.loadFlags(m.StaticConfig)

	m.initializeLogging()

	return nil
}

// loadFlags applies the explicitly set flags on top of cfg, flags win over files and environment.
func (m *MCPServerOptions) loadFlags(cfg *config.StaticConfig) {
	if m.flags == nil {
		return
	}
	if m.flags.Changed(flagLogLevel) {
		cfg.LogLevel = m.LogLevel
	}
	if m.flags.Changed(flagPort) {
		cfg.Port = m.Port
	}
	if m.flags.Changed(flagSSEBaseUrl) {
		cfg.SSEBaseURL = m.SSEBaseUrl
	}
	if m.flags.Changed(flagNetBoxURL) {
		cfg.NetBox.URL = m.NetBoxURL
	}
	if m.flags.Changed(flagNetBoxToken) {
		cfg.NetBox.Token = m.NetBoxToken
	}
	if m.flags.Changed(flagNetBoxBranch) {
		cfg.NetBox.Branch = m.NetBoxBranch
	}
	if m.flags.Changed(flagInsecureSkipTLSVerify) {
		verify := !m.InsecureSkipTLSVerify
		cfg.NetBox.VerifySSL = &verify
	}
	if m.flags.Changed(flagListOutput) {
		cfg.ListOutput = m.ListOutput
	}
	if m.flags.Changed(flagReadOnly) {
		cfg.ReadOnly = m.ReadOnly
	}
	if m.flags.Changed(flagDisableDestructive) {
		cfg.DisableDestructive = m.DisableDestructive
	}
	if m.flags.Changed(flagStateless) {
		cfg.Stateless = m.Stateless
	}
	if m.flags.Changed(flagToolsets) {
		cfg.Toolsets = m.Toolsets
	}
}

func (m *MCPServerOptions) initializeLogging() {
	flagSet := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(flagSet)
	if m.StaticConfig.Port == "" {
		// disable klog output for stdio mode
		// this is needed to avoid klog writing to stderr and breaking the protocol
		_ = flagSet.Parse([]string{"-logtostderr=false", "-alsologtostderr=false", "-stderrthreshold=FATAL"})
		return
	}
	loggerOptions := []textlogger.ConfigOption{textlogger.Output(m.Out)}
	if m.StaticConfig.LogLevel >= 0 {
		loggerOptions = append(loggerOptions, textlogger.Verbosity(m.StaticConfig.LogLevel))
		_ = flagSet.Parse([]string{"--v", strconv.Itoa(m.StaticConfig.LogLevel)})
	}
	logger := textlogger.NewLogger(textlogger.NewConfig(loggerOptions...))
	klog.SetLoggerWithOptions(logger)
}

func (m *MCPServerOptions) Validate() error {
	if output.FromString(m.StaticConfig.ListOutput) == nil {
		return fmt.Errorf("invalid output name: %s, valid names are: %s", m.StaticConfig.ListOutput, strings.Join(output.Names, ", "))
	}
	for _, name := range m.StaticConfig.Toolsets {
		if toolsets.ToolsetFromString(name) == nil {
			return fmt.Errorf("invalid toolset name: %s, valid names are: %s", name, strings.Join(toolsets.ToolsetNames(), ", "))
		}
	}
	if err := m.StaticConfig.Telemetry.Validate(); err != nil {
		return err
	}
	if m.Version {
		return nil
	}
	return m.StaticConfig.NetBox.Validate()
}

func (m *MCPServerOptions) Run() error {
	klog.V(1).Infof("Starting %s", version.BinaryName)
	klog.V(1).Infof(" - Config: %s", m.ConfigPath)
	klog.V(1).Infof(" - Config dir: %s", m.ConfigDir)
	klog.V(1).Infof(" - NetBox URL: %s", m.StaticConfig.NetBox.URL)
	klog.V(1).Infof(" - NetBox branch: %s", m.StaticConfig.NetBox.Branch)
	klog.V(1).Infof(" - Verify SSL: %t", m.StaticConfig.NetBox.IsVerifySSL())
	klog.V(1).Infof(" - Toolsets: %s", strings.Join(m.StaticConfig.Toolsets, ", "))
	klog.V(1).Infof(" - ListOutput: %s", m.StaticConfig.ListOutput)
	klog.V(1).Infof(" - Read-only mode: %t", m.StaticConfig.ReadOnly)
	klog.V(1).Infof(" - Disable destructive tools: %t", m.StaticConfig.DisableDestructive)
	klog.V(1).Infof(" - Stateless mode: %t", m.StaticConfig.Stateless)

	if m.Version {
		_, _ = fmt.Fprintf(m.Out, "%s\n", version.Version)
		return nil
	}

	shutdownTracer, err := telemetry.InitTracer(&m.StaticConfig.Telemetry, version.BinaryName, version.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTracer()

	mcpServer, err := mcp.NewServer(mcp.Configuration{StaticConfig: m.StaticConfig})
	if err != nil {
		return fmt.Errorf("failed to initialize MCP server: %w", err)
	}

	ctx := context.Background()
	if m.StaticConfig.Port != "" {
		watcher := config.NewWatcher(m.ConfigPath, m.ConfigDir)
		watcher.Watch(m.reloadConfiguration(mcpServer))
		defer watcher.Close()
		return internalhttp.Serve(ctx, mcpServer, m.StaticConfig)
	}

	defer func() { _ = mcpServer.Shutdown(ctx) }()
	if err := mcpServer.ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// reloadConfiguration re-reads the configuration sources and applies them to the running server.
func (m *MCPServerOptions) reloadConfiguration(mcpServer *mcp.Server) func() error {
	return func() error {
		cnf, err := config.Read(m.ConfigPath, m.ConfigDir)
		if err != nil {
			return err
		}
		m.loadFlags(cnf)
		return mcpServer.ReloadConfiguration(cnf)
	}
}
