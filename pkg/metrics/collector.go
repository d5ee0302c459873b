package metrics

import (
	"context"
	"time"
)

// Collector receives the events the server measures. Metrics is the only implementation,
// the interface lets callers such as the HTTP middleware accept a narrower dependency.
type Collector interface {
	RecordToolCall(ctx context.Context, name string, duration time.Duration, err error)
	RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration)
	// RecordNetBoxRequest matches netbox.RequestObserver, statusCode is 0 for transport failures.
	RecordNetBoxRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

var _ Collector = (*Metrics)(nil)
