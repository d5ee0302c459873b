package netbox

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound matches any *RemoteError carrying a 404 status code.
var ErrNotFound = errors.New("not found")

// ConfigurationError reports missing or malformed client settings.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "netbox configuration error: " + e.Reason
}

// InvalidObjectTypeError reports an object type outside the supported set.
type InvalidObjectTypeError struct {
	Name  string
	Valid []string
}

func (e *InvalidObjectTypeError) Error() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "invalid object_type %q, must be one of:", e.Name)
	for _, name := range e.Valid {
		sb.WriteString("\n- ")
		sb.WriteString(name)
	}
	return sb.String()
}

// ValidationError reports malformed input detected before any request is issued.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NetworkError reports a transport failure (connection refused, timeout, TLS...).
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("netbox request %s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RemoteError reports a non-2xx response from NetBox.
type RemoteError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("netbox API error (HTTP %d): %s", e.StatusCode, body)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
