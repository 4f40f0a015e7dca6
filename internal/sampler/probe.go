package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/levinOo/go-telemetry-project/internal/models"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// Probe читает один снимок ресурсов хоста.
type Probe interface {
	Sample(ctx context.Context) (models.SystemMetrics, error)
}

// HostProbe снимает показатели хоста через gopsutil.
// Ошибки CPU и памяти возвращаются вызывающему, остальные показатели при ошибке остаются нулевыми.
type HostProbe struct {
	// DiskPath задаёт точку монтирования для показателя заполненности диска.
	DiskPath string

	// CPUInterval задаёт окно измерения загрузки CPU.
	CPUInterval time.Duration
}

// NewHostProbe создаёт HostProbe с окном измерения CPU в одну секунду.
func NewHostProbe(diskPath string) *HostProbe {
	if diskPath == "" {
		diskPath = "/"
	}
	return &HostProbe{DiskPath: diskPath, CPUInterval: time.Second}
}

// Sample реализует Probe.
func (p *HostProbe) Sample(ctx context.Context) (models.SystemMetrics, error) {
	var m models.SystemMetrics

	percents, err := cpu.PercentWithContext(ctx, p.CPUInterval, false)
	if err != nil {
		return m, fmt.Errorf("read cpu: %w", err)
	}
	if len(percents) > 0 {
		m.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return m, fmt.Errorf("read memory: %w", err)
	}
	m.MemoryPercent = vm.UsedPercent

	if usage, err := disk.UsageWithContext(ctx, p.DiskPath); err == nil {
		m.DiskUsage = usage.UsedPercent
	}

	if counters, err := net.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		m.Network = models.NetworkIO{
			BytesSent:   counters[0].BytesSent,
			BytesRecv:   counters[0].BytesRecv,
			PacketsSent: counters[0].PacketsSent,
			PacketsRecv: counters[0].PacketsRecv,
		}
	}

	if conns, err := net.ConnectionsWithContext(ctx, "inet"); err == nil {
		m.ActiveConnections = len(conns)
	}

	return m, nil
}
