package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/netbox-community/netbox-mcp-server/pkg/netbox"
)

const (
	EnvNetBoxURL       = "NETBOX_URL"
	EnvNetBoxToken     = "NETBOX_TOKEN"
	EnvNetBoxBranch    = "NETBOX_BRANCH"
	EnvNetBoxVerifySSL = "NETBOX_VERIFY_SSL"
)

// NetBoxConfig holds the settings used to reach the NetBox REST API.
type NetBoxConfig struct {
	URL   string `toml:"url,omitempty"`
	Token string `toml:"token,omitempty"`
	// VerifySSL defaults to true when unset.
	VerifySSL *bool `toml:"verify_ssl,omitempty"`
	// Branch is the schema ID of the branch activated at startup.
	Branch string `toml:"branch,omitempty"`
	// BranchMode selects how the active branch is attached to object requests: "query" (default) or "header".
	BranchMode string `toml:"branch_mode,omitempty"`
	// BranchesEndpoint is the API path of the branching plugin's branch collection.
	BranchesEndpoint string `toml:"branches_endpoint,omitempty"`
	// CertificateAuthority is a PEM file path, relative paths resolve against the config file directory.
	CertificateAuthority string `toml:"certificate_authority,omitempty"`
	// Timeout is a Go duration string, e.g. "30s".
	Timeout           string  `toml:"timeout,omitempty"`
	RequestsPerSecond float64 `toml:"requests_per_second,omitempty"`
	UserAgent         string  `toml:"user_agent,omitempty"`
}

// IsVerifySSL reports whether the NetBox server certificate must be verified.
func (c *NetBoxConfig) IsVerifySSL() bool {
	return c.VerifySSL == nil || *c.VerifySSL
}

// applyEnvironment overrides file values with the NETBOX_* environment variables that are set.
func (c *NetBoxConfig) applyEnvironment(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(EnvNetBoxURL); ok && v != "" {
		c.URL = v
	}
	if v, ok := lookupEnv(EnvNetBoxToken); ok && v != "" {
		c.Token = v
	}
	if v, ok := lookupEnv(EnvNetBoxBranch); ok && v != "" {
		c.Branch = v
	}
	if v, ok := lookupEnv(EnvNetBoxVerifySSL); ok && v != "" {
		verify, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvNetBoxVerifySSL, v, err)
		}
		c.VerifySSL = &verify
	}
	return nil
}

// GetTimeout returns the parsed request timeout, or netbox.DefaultTimeout when unset.
func (c *NetBoxConfig) GetTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return netbox.DefaultTimeout, nil
	}
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid netbox timeout %q: %w", c.Timeout, err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("invalid netbox timeout %q: must be positive", c.Timeout)
	}
	return timeout, nil
}

// Validate checks the settings required to build a NetBox client.
func (c *NetBoxConfig) Validate() error {
	if c.URL == "" {
		return &netbox.ConfigurationError{Reason: "NetBox URL is required (set --netbox-url, [netbox] url or " + EnvNetBoxURL + ")"}
	}
	if u, err := url.Parse(c.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &netbox.ConfigurationError{Reason: fmt.Sprintf("NetBox URL %q must be an absolute http(s) URL", c.URL)}
	}
	if c.Token == "" {
		return &netbox.ConfigurationError{Reason: "NetBox token is required (set --netbox-token, [netbox] token or " + EnvNetBoxToken + ")"}
	}
	if _, err := c.GetTimeout(); err != nil {
		return &netbox.ConfigurationError{Reason: err.Error()}
	}
	switch c.BranchMode {
	case "", netbox.BranchModeQuery, netbox.BranchModeHeader:
	default:
		return &netbox.ConfigurationError{Reason: fmt.Sprintf("invalid branch_mode %q, must be %q or %q", c.BranchMode, netbox.BranchModeQuery, netbox.BranchModeHeader)}
	}
	if c.RequestsPerSecond < 0 {
		return &netbox.ConfigurationError{Reason: "requests_per_second cannot be negative"}
	}
	return nil
}

// ClientOptions converts the configuration into netbox.Options.
// configDirPath is used to resolve a relative certificate authority path.
func (c *NetBoxConfig) ClientOptions(configDirPath string) (netbox.Options, error) {
	if err := c.Validate(); err != nil {
		return netbox.Options{}, err
	}
	timeout, _ := c.GetTimeout()
	ca := c.CertificateAuthority
	if ca != "" && !filepath.IsAbs(ca) && configDirPath != "" {
		ca = filepath.Join(configDirPath, ca)
	}
	return netbox.Options{
		URL:                  c.URL,
		Token:                c.Token,
		VerifySSL:            c.IsVerifySSL(),
		CertificateAuthority: ca,
		Timeout:              timeout,
		Branch:               c.Branch,
		BranchMode:           c.BranchMode,
		BranchesEndpoint:     c.BranchesEndpoint,
		RequestsPerSecond:    c.RequestsPerSecond,
		UserAgent:            c.UserAgent,
	}, nil
}
