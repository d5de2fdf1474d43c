// Package sysmon samples system-wide CPU and memory usage with gopsutil.
package sysmon

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0
}

// Sample collects a single system-wide CPU and memory snapshot.
// CPU uses interval=0 (delta since last call). Returns zero values on error.
func Sample() Stats {
	var s Stats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}

// HostInfo describes the machine a count runs on.
type HostInfo struct {
	PhysicalCores int
	LogicalCores  int
	ModelName     string
	TotalMemory   uint64
}

// Host reads static host information. Fields that cannot be read are left
// at their zero value.
func Host(ctx context.Context) HostInfo {
	var h HostInfo
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		h.PhysicalCores = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		h.LogicalCores = n
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		h.ModelName = infos[0].ModelName
	}
	if vmem, err := mem.VirtualMemoryWithContext(ctx); err == nil && vmem != nil {
		h.TotalMemory = vmem.Total
	}
	return h
}

// Watch calls fn with a fresh sample every interval until ctx is done.
func Watch(ctx context.Context, interval time.Duration, fn func(Stats)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(Sample())
		}
	}
}
