package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records a snapshot of the process at the end of a run. The
// whole dataset is held in memory, so heap size tracks input size.
type RuntimeMetrics struct {
	goRoutines     metric.Int64Gauge
	heapAlloc      metric.Int64Gauge
	totalAllocated metric.Int64Gauge
	memorySystem   metric.Int64Gauge
	gcCount        metric.Int64Gauge
	processUptime  metric.Float64Gauge
}

// RuntimeStats holds one snapshot of runtime statistics
type RuntimeStats struct {
	GoRoutines     int64
	HeapAlloc      int64
	TotalAllocated int64
	MemorySystem   int64
	GCCount        uint32
	ProcessUptime  time.Duration
	Timestamp      time.Time
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"salesreport_goroutines",
		metric.WithDescription("Number of goroutines at the end of the run"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"salesreport_heap_alloc_bytes",
		metric.WithDescription("Heap bytes in use at the end of the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAllocated, err := meter.Int64Gauge(
		"salesreport_total_allocated_bytes",
		metric.WithDescription("Cumulative bytes allocated during the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"salesreport_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"salesreport_gc_count",
		metric.WithDescription("Number of completed garbage collections"),
	)
	if err != nil {
		return nil, err
	}

	processUptime, err := meter.Float64Gauge(
		"salesreport_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goRoutines:     goRoutines,
		heapAlloc:      heapAlloc,
		totalAllocated: totalAllocated,
		memorySystem:   memorySystem,
		gcCount:        gcCount,
		processUptime:  processUptime,
	}, nil
}

// Collect reads the runtime statistics and records them
func (rm *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time) *RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &RuntimeStats{
		GoRoutines:     int64(runtime.NumGoroutine()),
		HeapAlloc:      int64(memStats.HeapAlloc),
		TotalAllocated: int64(memStats.TotalAlloc),
		MemorySystem:   int64(memStats.Sys),
		GCCount:        memStats.NumGC,
		ProcessUptime:  time.Since(startTime),
		Timestamp:      time.Now(),
	}

	if rm == nil {
		return stats
	}

	rm.goRoutines.Record(ctx, stats.GoRoutines)
	rm.heapAlloc.Record(ctx, stats.HeapAlloc)
	rm.totalAllocated.Record(ctx, stats.TotalAllocated)
	rm.memorySystem.Record(ctx, stats.MemorySystem)
	rm.gcCount.Record(ctx, int64(stats.GCCount))
	rm.processUptime.Record(ctx, stats.ProcessUptime.Seconds())

	return stats
}
