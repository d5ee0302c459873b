package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"k8s.io/klog/v2"
)

// Statistics is the JSON document served on /stats.
type Statistics struct {
	TotalToolCalls   int64            `json:"total_tool_calls"`
	ToolCallErrors   int64            `json:"tool_call_errors"`
	ToolCallsByName  map[string]int64 `json:"tool_calls_by_name"`
	ToolErrorsByName map[string]int64 `json:"tool_errors_by_name"`

	TotalHTTPRequests    int64            `json:"total_http_requests"`
	HTTPRequestsByPath   map[string]int64 `json:"http_requests_by_path"`
	HTTPRequestsByStatus map[string]int64 `json:"http_requests_by_status"`
	HTTPRequestsByMethod map[string]int64 `json:"http_requests_by_method"`

	TotalNetBoxRequests    int64            `json:"total_netbox_requests"`
	NetBoxRequestErrors    int64            `json:"netbox_request_errors"`
	NetBoxRequestsByMethod map[string]int64 `json:"netbox_requests_by_method"`
	NetBoxRequestsByStatus map[string]int64 `json:"netbox_requests_by_status"`

	UptimeSeconds int64 `json:"uptime_seconds"`
	StartTime     int64 `json:"start_time_unix"`
}

// breakdown adds value to by[key] for the attribute key of a data point, points without it are skipped.
type breakdown struct {
	key string
	by  map[string]int64
}

// GetStats collects the counters from the manual reader. A failed collection yields zero counts.
func (m *Metrics) GetStats() *Statistics {
	stats := &Statistics{
		ToolCallsByName:        map[string]int64{},
		ToolErrorsByName:       map[string]int64{},
		HTTPRequestsByPath:     map[string]int64{},
		HTTPRequestsByStatus:   map[string]int64{},
		HTTPRequestsByMethod:   map[string]int64{},
		NetBoxRequestsByMethod: map[string]int64{},
		NetBoxRequestsByStatus: map[string]int64{},
		UptimeSeconds:          int64(time.Since(m.startTime).Seconds()),
		StartTime:              m.startTime.Unix(),
	}
	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(context.Background(), &rm); err != nil {
		klog.V(1).Infof("Failed to collect metrics for stats endpoint: %v", err)
		return stats
	}

	counters := map[string]struct {
		total      *int64
		breakdowns []breakdown
	}{
		toolCalls:  {&stats.TotalToolCalls, []breakdown{{attrToolName, stats.ToolCallsByName}}},
		toolErrors: {&stats.ToolCallErrors, []breakdown{{attrToolName, stats.ToolErrorsByName}}},
		httpRequests: {&stats.TotalHTTPRequests, []breakdown{
			{attrMethod, stats.HTTPRequestsByMethod},
			{attrPath, stats.HTTPRequestsByPath},
			{attrStatusClass, stats.HTTPRequestsByStatus},
		}},
		netboxRequests: {&stats.TotalNetBoxRequests, []breakdown{
			{attrMethod, stats.NetBoxRequestsByMethod},
			{attrStatusClass, stats.NetBoxRequestsByStatus},
		}},
		netboxErrors: {&stats.NetBoxRequestErrors, nil},
	}
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			counter, tracked := counters[metric.Name]
			sum, isSum := metric.Data.(metricdata.Sum[int64])
			if !tracked || !isSum {
				continue
			}
			for _, dp := range sum.DataPoints {
				*counter.total += dp.Value
				for _, b := range counter.breakdowns {
					if v := attributeValue(dp.Attributes, b.key); v != "" {
						b.by[v] += dp.Value
					}
				}
			}
		}
	}
	return stats
}

func attributeValue(attrs attribute.Set, key string) string {
	if v, ok := attrs.Value(attribute.Key(key)); ok {
		return v.AsString()
	}
	return ""
}
