package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the process memory checker.
type MemoryCheckerConfig struct {
	// WarningThreshold is the fraction of MaxAlloc that reports
	// degraded. Between 0 and 1. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the fraction of MaxAlloc that reports
	// unhealthy. Between 0 and 1. Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the heap budget in bytes. Zero measures against the
	// memory the runtime has obtained from the OS.
	// Default: 0
	MaxAlloc uint64
}

// MemoryChecker watches the process heap. Cache tiers hold every entry
// in memory on purpose, so heap growth is the one resource a busy
// dashboard host actually exhausts.
type MemoryChecker struct {
	config MemoryCheckerConfig
}

// NewMemoryChecker creates a memory checker with defaults applied.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold + 0.1
		if config.CriticalThreshold > 1 {
			config.CriticalThreshold = 0.99
		}
	}

	return &MemoryChecker{config: config}
}

// Name identifies the checker.
func (m *MemoryChecker) Name() string {
	return "memory"
}

// Check reads runtime memory statistics and compares heap use against
// the thresholds.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	maxAlloc := m.config.MaxAlloc
	if maxAlloc == 0 {
		maxAlloc = stats.Sys
	}
	if maxAlloc == 0 {
		return Healthy("memory stats unavailable")
	}

	usage := float64(stats.Alloc) / float64(maxAlloc)

	details := map[string]any{
		"alloc_bytes": stats.Alloc,
		"max_alloc":   maxAlloc,
		"heap_in_use": stats.HeapInuse,
		"num_gc":      stats.NumGC,
		"goroutines":  runtime.NumGoroutine(),
	}

	switch {
	case usage >= m.config.CriticalThreshold:
		return Unhealthy(
			fmt.Sprintf("memory usage critical: %.1f%%", usage*100),
			ErrCheckFailed,
		).WithDetails(details)
	case usage >= m.config.WarningThreshold:
		return Degraded(
			fmt.Sprintf("memory usage high: %.1f%%", usage*100),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("memory usage normal: %.1f%%", usage*100),
		).WithDetails(details)
	}
}
