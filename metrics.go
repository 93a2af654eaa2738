package gridgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordBlockLoad is called after each block load completes.
	// rows is the number of rows delivered; a zero value indicates a
	// failed or empty load.
	RecordBlockLoad(rows int, duration time.Duration)

	// RecordCellLookup is called for each point read. hit is false when
	// the owning block was not yet cached.
	RecordCellLookup(hit bool)

	// RecordEviction is called after each cleanup pass with the number
	// of blocks dropped.
	RecordEviction(dropped int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBlockLoad(int, time.Duration) {}
func (NoopMetricsCollector) RecordCellLookup(bool)              {}
func (NoopMetricsCollector) RecordEviction(int)                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BlockLoads     atomic.Int64
	BlockLoadRows  atomic.Int64
	BlockLoadNanos atomic.Int64
	EmptyLoads     atomic.Int64
	CellHits       atomic.Int64
	CellMisses     atomic.Int64
	Evictions      atomic.Int64
	EvictedBlocks  atomic.Int64
}

// RecordBlockLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBlockLoad(rows int, duration time.Duration) {
	b.BlockLoads.Add(1)
	b.BlockLoadRows.Add(int64(rows))
	b.BlockLoadNanos.Add(duration.Nanoseconds())
	if rows == 0 {
		b.EmptyLoads.Add(1)
	}
}

// RecordCellLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCellLookup(hit bool) {
	if hit {
		b.CellHits.Add(1)
	} else {
		b.CellMisses.Add(1)
	}
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(dropped int) {
	b.Evictions.Add(1)
	b.EvictedBlocks.Add(int64(dropped))
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	BlockLoads        int64
	BlockLoadRows     int64
	BlockLoadAvgNanos int64
	EmptyLoads        int64
	CellHits          int64
	CellMisses        int64
	Evictions         int64
	EvictedBlocks     int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	loads := b.BlockLoads.Load()
	var avg int64
	if loads > 0 {
		avg = b.BlockLoadNanos.Load() / loads
	}
	return BasicMetricsStats{
		BlockLoads:        loads,
		BlockLoadRows:     b.BlockLoadRows.Load(),
		BlockLoadAvgNanos: avg,
		EmptyLoads:        b.EmptyLoads.Load(),
		CellHits:          b.CellHits.Load(),
		CellMisses:        b.CellMisses.Load(),
		Evictions:         b.Evictions.Load(),
		EvictedBlocks:     b.EvictedBlocks.Load(),
	}
}
