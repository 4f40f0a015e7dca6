// Package exporter публикует состояние телеметрии в формате Prometheus.
package exporter

import (
	"github.com/levinOo/go-telemetry-project/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "telemetry"

// Source описывает читающую часть ядра телеметрии, нужную коллектору.
type Source interface {
	Endpoints() []string
	QueryEndpointStats(endpoint string) (models.EndpointSummary, bool)
	LatestMetrics() (models.SystemMetrics, bool)
	ListActiveAlerts() []models.Alert
}

// Collector снимает значения с Source в момент сбора, не храня собственного состояния.
type Collector struct {
	source Source

	calls        *prometheus.Desc
	failures     *prometheus.Desc
	responseTime *prometheus.Desc
	cacheHitRate *prometheus.Desc
	hostCPU      *prometheus.Desc
	hostMemory   *prometheus.Desc
	hostDisk     *prometheus.Desc
	connections  *prometheus.Desc
	activeAlerts *prometheus.Desc
}

// NewCollector создаёт коллектор поверх source.
func NewCollector(source Source) *Collector {
	endpoint := []string{"endpoint"}
	return &Collector{
		source: source,
		calls: prometheus.NewDesc(prometheus.BuildFQName(namespace, "endpoint", "calls_total"),
			"Total calls recorded per endpoint.", endpoint, nil),
		failures: prometheus.NewDesc(prometheus.BuildFQName(namespace, "endpoint", "failures_total"),
			"Calls that finished with a status outside 2xx.", endpoint, nil),
		responseTime: prometheus.NewDesc(prometheus.BuildFQName(namespace, "endpoint", "response_time_avg_seconds"),
			"Average response time per endpoint.", endpoint, nil),
		cacheHitRate: prometheus.NewDesc(prometheus.BuildFQName(namespace, "endpoint", "cache_hit_rate_percent"),
			"Share of calls served from cache.", endpoint, nil),
		hostCPU: prometheus.NewDesc(prometheus.BuildFQName(namespace, "host", "cpu_percent"),
			"Host CPU utilisation from the latest sample.", nil, nil),
		hostMemory: prometheus.NewDesc(prometheus.BuildFQName(namespace, "host", "memory_percent"),
			"Host memory utilisation from the latest sample.", nil, nil),
		hostDisk: prometheus.NewDesc(prometheus.BuildFQName(namespace, "host", "disk_percent"),
			"Disk utilisation from the latest sample.", nil, nil),
		connections: prometheus.NewDesc(prometheus.BuildFQName(namespace, "host", "active_connections"),
			"Open inet connections from the latest sample.", nil, nil),
		activeAlerts: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "active_alerts"),
			"Unacknowledged alerts by level.", []string{"level"}, nil),
	}
}

// Describe реализует prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.calls
	ch <- c.failures
	ch <- c.responseTime
	ch <- c.cacheHitRate
	ch <- c.hostCPU
	ch <- c.hostMemory
	ch <- c.hostDisk
	ch <- c.connections
	ch <- c.activeAlerts
}

// Collect реализует prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, endpoint := range c.source.Endpoints() {
		s, ok := c.source.QueryEndpointStats(endpoint)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.calls, prometheus.CounterValue, float64(s.TotalCalls), endpoint)
		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(s.FailedCalls), endpoint)
		ch <- prometheus.MustNewConstMetric(c.responseTime, prometheus.GaugeValue, s.AverageResponseTime, endpoint)
		ch <- prometheus.MustNewConstMetric(c.cacheHitRate, prometheus.GaugeValue, s.Cache.HitRate, endpoint)
	}

	if m, ok := c.source.LatestMetrics(); ok {
		ch <- prometheus.MustNewConstMetric(c.hostCPU, prometheus.GaugeValue, m.CPUPercent)
		ch <- prometheus.MustNewConstMetric(c.hostMemory, prometheus.GaugeValue, m.MemoryPercent)
		ch <- prometheus.MustNewConstMetric(c.hostDisk, prometheus.GaugeValue, m.DiskUsage)
		ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(m.ActiveConnections))
	}

	counts := map[models.Severity]int{
		models.SeverityInfo:     0,
		models.SeverityWarning:  0,
		models.SeverityError:    0,
		models.SeverityCritical: 0,
	}
	for _, a := range c.source.ListActiveAlerts() {
		counts[a.Level]++
	}
	for level, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.activeAlerts, prometheus.GaugeValue, float64(n), string(level))
	}
}
