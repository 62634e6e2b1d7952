package multivec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordBatchInsert is called after each InsertEntries call.
	// count is the number of items in the batch, duration is the total time
	// taken, err is nil if successful.
	RecordBatchInsert(count int, duration time.Duration, err error)

	// RecordRemove is called after each RemoveEntries call.
	// removed is the number of entries removed (0 on failure).
	RecordRemove(removed int, duration time.Duration, err error)

	// RecordUnlink is called after each UnlinkEntry call.
	RecordUnlink(duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot save.
	RecordSnapshot(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBatchInsert(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRemove(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordUnlink(time.Duration, error)          {}
func (NoopMetricsCollector) RecordSnapshot(int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BatchInsertCount      atomic.Int64
	BatchInsertItems      atomic.Int64
	BatchInsertErrors     atomic.Int64
	BatchInsertTotalNanos atomic.Int64
	RemoveCount           atomic.Int64
	RemoveEntries         atomic.Int64
	RemoveErrors          atomic.Int64
	RemoveTotalNanos      atomic.Int64
	UnlinkCount           atomic.Int64
	UnlinkErrors          atomic.Int64
	SnapshotCount         atomic.Int64
	SnapshotBytes         atomic.Int64
	SnapshotErrors        atomic.Int64
}

// RecordBatchInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchInsert(count int, duration time.Duration, err error) {
	b.BatchInsertCount.Add(1)
	b.BatchInsertItems.Add(int64(count))
	b.BatchInsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BatchInsertErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(removed int, duration time.Duration, err error) {
	b.RemoveCount.Add(1)
	b.RemoveEntries.Add(int64(removed))
	b.RemoveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordUnlink implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUnlink(duration time.Duration, err error) {
	b.UnlinkCount.Add(1)
	if err != nil {
		b.UnlinkErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int, duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotBytes.Add(int64(bytes))
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BatchInsertCount:    b.BatchInsertCount.Load(),
		BatchInsertItems:    b.BatchInsertItems.Load(),
		BatchInsertErrors:   b.BatchInsertErrors.Load(),
		BatchInsertAvgNanos: avg(b.BatchInsertTotalNanos.Load(), b.BatchInsertCount.Load()),
		RemoveCount:         b.RemoveCount.Load(),
		RemoveEntries:       b.RemoveEntries.Load(),
		RemoveErrors:        b.RemoveErrors.Load(),
		RemoveAvgNanos:      avg(b.RemoveTotalNanos.Load(), b.RemoveCount.Load()),
		UnlinkCount:         b.UnlinkCount.Load(),
		UnlinkErrors:        b.UnlinkErrors.Load(),
		SnapshotCount:       b.SnapshotCount.Load(),
		SnapshotBytes:       b.SnapshotBytes.Load(),
		SnapshotErrors:      b.SnapshotErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BatchInsertCount    int64
	BatchInsertItems    int64
	BatchInsertErrors   int64
	BatchInsertAvgNanos int64
	RemoveCount         int64
	RemoveEntries       int64
	RemoveErrors        int64
	RemoveAvgNanos      int64
	UnlinkCount         int64
	UnlinkErrors        int64
	SnapshotCount       int64
	SnapshotBytes       int64
	SnapshotErrors      int64
}
