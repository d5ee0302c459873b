// Package mcplog sends log notifications to MCP clients, mirrored to the server log.
package mcplog

import (
	"context"
	"regexp"

	"github.com/go-logr/logr"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"k8s.io/klog/v2"
)

type sessionKey struct{}

// WithSession returns a context carrying the session that SendMCPLog notifies.
func WithSession(ctx context.Context, session *mcp.ServerSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext returns the session stored by WithSession, or nil.
func SessionFromContext(ctx context.Context) *mcp.ServerSession {
	session, _ := ctx.Value(sessionKey{}).(*mcp.ServerSession)
	return session
}

// Level is an RFC 5424 severity as used by MCP logging notifications, ordered from least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarning
	LevelError
	LevelCritical
	LevelAlert
	LevelEmergency
)

var levelNames = [...]mcp.LoggingLevel{"debug", "info", "notice", "warning", "error", "critical", "alert", "emergency"}

// String returns the MCP name of the level, unknown levels are reported as debug.
func (l Level) String() string {
	if l < LevelDebug || l > LevelEmergency {
		return string(levelNames[LevelDebug])
	}
	return string(levelNames[l])
}

// mcpLogger keeps client-facing messages apart from the rest of the server log.
var mcpLogger logr.Logger = klog.NewKlogr().WithName("mcp")

type redaction struct {
	pattern     *regexp.Regexp
	replacement string
}

// keep preserves the first capture group, usually a field name or an authorization scheme.
func keep(pattern string) redaction {
	return redaction{regexp.MustCompile(pattern), `${1}[REDACTED]`}
}

func drop(pattern string) redaction {
	return redaction{regexp.MustCompile(pattern), `[REDACTED]`}
}

// redactions run in order, NetBox credentials first.
var redactions = []redaction{
	drop(`nbt_[A-Za-z0-9]+\.[A-Za-z0-9]+`),
	keep(`(Token\s+)[A-Za-z0-9]{20,}`),
	keep(`(Bearer\s+)[A-Za-z0-9\-._~+/]+=*`),
	keep(`(Basic\s+)[A-Za-z0-9+/]+=*`),
	keep(`(NETBOX_TOKEN\s*=\s*)\S+`),
	{regexp.MustCompile(`("(?:password|token|key|secret|api[_-]?key|access[_-]?key|client[_-]?secret|private[_-]?key)"\s*:\s*)"[^"]*"`), `${1}"[REDACTED]"`},
	{regexp.MustCompile(`((?:https?|postgres(?:ql)?|mysql|redis|mongodb(?:\+srv)?)://[^:/@\s]+:)[^@\s/]+(@)`), `${1}[REDACTED]${2}`},
	drop(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
	drop(`-----BEGIN[A-Z ]+PRIVATE KEY( BLOCK)?-----`),
	drop(`(?:AKIA|ASIA)[A-Z0-9]{16}`),
	drop(`(?:ghp_[a-zA-Z0-9]{36}|glpat-[a-zA-Z0-9\-_]{20})`),
}

func sanitizeMessage(msg string) string {
	for _, r := range redactions {
		msg = r.pattern.ReplaceAllString(msg, r.replacement)
	}
	return msg
}

// SendMCPLog logs message with the "mcp" logger and, when ctx carries a session, sends it
// sanitized to the client as a notifications/message.
func SendMCPLog(ctx context.Context, level Level, message string) {
	switch {
	case level >= LevelError:
		mcpLogger.Error(nil, message)
	case level >= LevelNotice:
		mcpLogger.V(1).Info(message)
	default:
		mcpLogger.V(2).Info(message)
	}

	session := SessionFromContext(ctx)
	if session == nil {
		return
	}
	if err := session.Log(ctx, &mcp.LoggingMessageParams{
		Level:  levelNames[max(LevelDebug, min(level, LevelEmergency))],
		Logger: "netbox-mcp-server",
		Data:   sanitizeMessage(message),
	}); err != nil {
		mcpLogger.V(3).Info("failed to send log to MCP client", "error", err)
	}
}
