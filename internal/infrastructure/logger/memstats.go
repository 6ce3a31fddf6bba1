package logger

import (
	"runtime"
	"time"
)

// MemStatsMonitor periodically logs memory usage statistics.
type MemStatsMonitor struct {
	interval time.Duration
	stopped  chan struct{}
}

// NewMemStatsMonitor creates a memory statistics monitor.
func NewMemStatsMonitor(interval time.Duration) *MemStatsMonitor {
	return &MemStatsMonitor{
		interval: interval,
		stopped:  make(chan struct{}),
	}
}

// Start begins periodic monitoring.
func (m *MemStatsMonitor) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.LogMemStats()
			case <-m.stopped:
				return
			}
		}
	}()
}

// Stop stops the monitor.
func (m *MemStatsMonitor) Stop() {
	close(m.stopped)
}

// LogMemStats logs current memory usage statistics.
func (m *MemStatsMonitor) LogMemStats() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	Info("memory stats",
		"alloc_mb", stats.Alloc/1024/1024,
		"sys_mb", stats.Sys/1024/1024,
		"heap_alloc_mb", stats.HeapAlloc/1024/1024,
		"heap_sys_mb", stats.HeapSys/1024/1024,
		"num_gc", stats.NumGC)
}

// LogMemStatsOnce logs memory usage statistics once.
func LogMemStatsOnce() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	Info("memory stats (single)",
		"alloc_mb", stats.Alloc/1024/1024,
		"sys_mb", stats.Sys/1024/1024,
		"heap_alloc_mb", stats.HeapAlloc/1024/1024,
		"heap_sys_mb", stats.HeapSys/1024/1024,
		"num_gc", stats.NumGC)
}
