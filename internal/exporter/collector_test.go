package exporter

import (
	"strings"
	"testing"

	"github.com/levinOo/go-telemetry-project/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	stats  map[string]models.EndpointSummary
	latest *models.SystemMetrics
	alerts []models.Alert
}

func (f *fakeSource) Endpoints() []string {
	out := make([]string, 0, len(f.stats))
	for name := range f.stats {
		out = append(out, name)
	}
	return out
}

func (f *fakeSource) QueryEndpointStats(endpoint string) (models.EndpointSummary, bool) {
	s, ok := f.stats[endpoint]
	return s, ok
}

func (f *fakeSource) LatestMetrics() (models.SystemMetrics, bool) {
	if f.latest == nil {
		return models.SystemMetrics{}, false
	}
	return *f.latest, true
}

func (f *fakeSource) ListActiveAlerts() []models.Alert { return f.alerts }

func TestCollectEndpoints(t *testing.T) {
	src := &fakeSource{
		stats: map[string]models.EndpointSummary{
			"/news": {
				Endpoint:            "/news",
				TotalCalls:          4,
				FailedCalls:         1,
				AverageResponseTime: 0.5,
				Cache:               models.CachePerformance{Hits: 1, Misses: 3, HitRate: 25},
			},
		},
	}

	expected := `
# HELP telemetry_endpoint_calls_total Total calls recorded per endpoint.
# TYPE telemetry_endpoint_calls_total counter
telemetry_endpoint_calls_total{endpoint="/news"} 4
# HELP telemetry_endpoint_failures_total Calls that finished with a status outside 2xx.
# TYPE telemetry_endpoint_failures_total counter
telemetry_endpoint_failures_total{endpoint="/news"} 1
# HELP telemetry_endpoint_response_time_avg_seconds Average response time per endpoint.
# TYPE telemetry_endpoint_response_time_avg_seconds gauge
telemetry_endpoint_response_time_avg_seconds{endpoint="/news"} 0.5
# HELP telemetry_endpoint_cache_hit_rate_percent Share of calls served from cache.
# TYPE telemetry_endpoint_cache_hit_rate_percent gauge
telemetry_endpoint_cache_hit_rate_percent{endpoint="/news"} 25
`
	err := testutil.CollectAndCompare(NewCollector(src), strings.NewReader(expected),
		"telemetry_endpoint_calls_total",
		"telemetry_endpoint_failures_total",
		"telemetry_endpoint_response_time_avg_seconds",
		"telemetry_endpoint_cache_hit_rate_percent",
	)
	if err != nil {
		t.Error(err)
	}
}

func TestCollectHostAndAlerts(t *testing.T) {
	src := &fakeSource{
		latest: &models.SystemMetrics{CPUPercent: 91, MemoryPercent: 40, DiskUsage: 70, ActiveConnections: 12},
		alerts: []models.Alert{
			{ID: 1, Level: models.SeverityWarning},
			{ID: 2, Level: models.SeverityCritical},
			{ID: 3, Level: models.SeverityCritical},
		},
	}

	expected := `
# HELP telemetry_active_alerts Unacknowledged alerts by level.
# TYPE telemetry_active_alerts gauge
telemetry_active_alerts{level="CRITICAL"} 2
telemetry_active_alerts{level="ERROR"} 0
telemetry_active_alerts{level="INFO"} 0
telemetry_active_alerts{level="WARNING"} 1
# HELP telemetry_host_cpu_percent Host CPU utilisation from the latest sample.
# TYPE telemetry_host_cpu_percent gauge
telemetry_host_cpu_percent 91
`
	err := testutil.CollectAndCompare(NewCollector(src), strings.NewReader(expected),
		"telemetry_active_alerts", "telemetry_host_cpu_percent")
	if err != nil {
		t.Error(err)
	}
}

func TestCollectWithoutSample(t *testing.T) {
	c := NewCollector(&fakeSource{})

	if n := testutil.CollectAndCount(c, "telemetry_host_cpu_percent"); n != 0 {
		t.Errorf("expected no host metrics before the first sample, got %d", n)
	}
	if n := testutil.CollectAndCount(c, "telemetry_active_alerts"); n != 4 {
		t.Errorf("expected one series per level, got %d", n)
	}
}
