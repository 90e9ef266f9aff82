package monitor

import (
	"context"
	"math"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// HostStats contains host-wide resource usage
type HostStats struct {
	MemoryPercent float64 `json:"memoryPercent"`
	MemoryUsed    uint64  `json:"memoryUsed"`
	MemoryTotal   uint64  `json:"memoryTotal"`
	CPUPercent    float64 `json:"cpuPercent"`
}

// ProcessStats contains process resource usage
type ProcessStats struct {
	CPUPercent  float64 `json:"cpuPercent"`
	MemoryBytes uint64  `json:"memoryBytes"`
}

// Sampler reads resource usage from the operating system
//
//go:generate mockgen -source=sampler.go -destination=sampler_mock.go -package=monitor
type Sampler interface {
	Host(ctx context.Context) (HostStats, error)
	Process(ctx context.Context, pid int) (ProcessStats, error)
}

type sampler struct{}

// NewSampler creates a gopsutil backed sampler
func NewSampler() Sampler {
	return &sampler{}
}

// Host samples memory and CPU; CPU usage is measured since the previous call
func (s *sampler) Host(ctx context.Context) (HostStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return HostStats{}, err
	}

	stats := HostStats{
		MemoryPercent: vm.UsedPercent,
		MemoryUsed:    vm.Used,
		MemoryTotal:   vm.Total,
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	return stats, nil
}

func (s *sampler) Process(ctx context.Context, pid int) (ProcessStats, error) {
	if pid <= 0 || pid > math.MaxInt32 {
		return ProcessStats{}, nil
	}

	proc, err := process.NewProcessWithContext(ctx, int32(pid)) // #nosec G115 -- PID range checked above
	if err != nil {
		return ProcessStats{}, err
	}

	stats := ProcessStats{}

	if cpuPercent, err := proc.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = cpuPercent
	}

	if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil {
		stats.MemoryBytes = memInfo.RSS
	}

	return stats, nil
}
