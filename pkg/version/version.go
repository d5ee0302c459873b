package version

// Overridden at build time through -ldflags "-X ..."
var CommitHash = "unknown"
var BuildTime = "1970-01-01T00:00:00Z"
var Version = "0.0.0"
var BinaryName = "netbox-mcp-server"
var WebsiteURL = "https://github.com/netbox-community/netbox-mcp-server"
