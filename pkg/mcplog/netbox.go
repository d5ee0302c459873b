package mcplog

import (
	"context"
	"errors"
	"net/http"

	"github.com/netbox-community/netbox-mcp-server/pkg/netbox"
)

// classifyNetBoxError maps a NetBox client error to a log level and message.
// Returns false for nil errors or errors not produced by the NetBox client.
func classifyNetBoxError(err error, operation string) (Level, string, bool) {
	if err == nil {
		return 0, "", false
	}

	var remoteErr *netbox.RemoteError
	var networkErr *netbox.NetworkError
	var validationErr *netbox.ValidationError
	var objectTypeErr *netbox.InvalidObjectTypeError
	var configErr *netbox.ConfigurationError
	switch {
	case errors.As(err, &remoteErr):
		return classifyStatus(remoteErr.StatusCode, operation)
	case errors.As(err, &networkErr):
		if errors.Is(err, context.DeadlineExceeded) {
			return LevelError, "Request timeout - NetBox may be slow or overloaded", true
		}
		return LevelError, "NetBox is unreachable - check the URL and TLS settings", true
	case errors.As(err, &validationErr), errors.As(err, &objectTypeErr):
		return LevelWarning, "Invalid request - check parameters for " + operation, true
	case errors.As(err, &configErr):
		return LevelCritical, "NetBox client is misconfigured - check the server configuration", true
	}
	return 0, "", false
}

func classifyStatus(statusCode int, operation string) (Level, string, bool) {
	switch {
	case statusCode == http.StatusNotFound:
		return LevelInfo, "Object not found - it may not exist or may have been deleted", true
	case statusCode == http.StatusUnauthorized:
		return LevelError, "Authentication failed - check the NetBox API token", true
	case statusCode == http.StatusForbidden:
		return LevelError, "Permission denied - check the token permissions for " + operation, true
	case statusCode == http.StatusBadRequest:
		return LevelError, "Invalid object specification - NetBox rejected the request", true
	case statusCode == http.StatusConflict:
		return LevelError, "Conflict - the object may have been modified", true
	case statusCode == http.StatusTooManyRequests:
		return LevelWarning, "Rate limited - too many requests to NetBox", true
	case statusCode >= http.StatusInternalServerError:
		return LevelError, "NetBox server error - NetBox may be unavailable", true
	}
	return LevelError, "Operation failed - NetBox returned an unexpected response", true
}

// HandleNetBoxError sends the MCP log message matching a NetBox client error.
// operation describes the operation (e.g., "device creation", "branch merge").
func HandleNetBoxError(ctx context.Context, err error, operation string) {
	if level, message, ok := classifyNetBoxError(err, operation); ok {
		SendMCPLog(ctx, level, message)
	}
}
