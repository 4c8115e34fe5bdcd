package rowvalidator

import (
	"sync/atomic"
	"time"
)

// Metrics tracks validation throughput using lock-free atomic operations.
// All methods are safe for concurrent use; one Metrics instance may be
// shared across runs.
type Metrics struct {
	// Row counts
	rowsTotal atomic.Uint64
	rowsValid atomic.Uint64

	// Run counts
	runsTotal  atomic.Uint64
	chunksDone atomic.Uint64

	// Run timing (nanoseconds)
	runTimeTotal atomic.Uint64
	runTimeMin   atomic.Uint64
	runTimeMax   atomic.Uint64

	// Cache
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Structural vs field errors
	fieldErrors      atomic.Uint64
	structuralErrors atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so the first sample becomes the minimum
	m.runTimeMin.Store(^uint64(0))
	return m
}

// RecordChunk records a completed chunk of rows.
func (m *Metrics) RecordChunk(rows, valid uint64) {
	m.chunksDone.Add(1)
	m.rowsTotal.Add(rows)
	m.rowsValid.Add(valid)
}

// RecordRun records a completed run.
func (m *Metrics) RecordRun(duration time.Duration) {
	m.runsTotal.Add(1)

	ns := uint64(duration.Nanoseconds())
	m.runTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.runTimeMin.Load()
		if ns >= old {
			break
		}
		if m.runTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.runTimeMax.Load()
		if ns <= old {
			break
		}
		if m.runTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordErrors records collected errors, split by structural vs field.
func (m *Metrics) RecordErrors(errs []ValidationError) {
	var structural, field uint64
	for _, e := range errs {
		if e.IsStructural() {
			structural++
		} else {
			field++
		}
	}
	if structural > 0 {
		m.structuralErrors.Add(structural)
	}
	if field > 0 {
		m.fieldErrors.Add(field)
	}
}

// RecordCacheHit records a result-cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a result-cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// --- Query Methods ---

// RowsTotal returns the total number of rows validated.
func (m *Metrics) RowsTotal() uint64 {
	return m.rowsTotal.Load()
}

// RowsValid returns the number of rows that passed validation.
func (m *Metrics) RowsValid() uint64 {
	return m.rowsValid.Load()
}

// RunsTotal returns the number of completed runs.
func (m *Metrics) RunsTotal() uint64 {
	return m.runsTotal.Load()
}

// ChunksDone returns the number of completed chunks.
func (m *Metrics) ChunksDone() uint64 {
	return m.chunksDone.Load()
}

// ValidRate returns the fraction of valid rows (0.0 to 1.0).
func (m *Metrics) ValidRate() float64 {
	total := m.rowsTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.rowsValid.Load()) / float64(total)
}

// AverageRunTime returns the mean run duration.
func (m *Metrics) AverageRunTime() time.Duration {
	runs := m.runsTotal.Load()
	if runs == 0 {
		return 0
	}
	return time.Duration(m.runTimeTotal.Load() / runs)
}

// MinRunTime returns the shortest recorded run duration.
func (m *Metrics) MinRunTime() time.Duration {
	minVal := m.runTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal)
}

// MaxRunTime returns the longest recorded run duration.
func (m *Metrics) MaxRunTime() time.Duration {
	return time.Duration(m.runTimeMax.Load())
}

// RowsPerSecond returns aggregate validation throughput.
func (m *Metrics) RowsPerSecond() float64 {
	ns := m.runTimeTotal.Load()
	if ns == 0 {
		return 0
	}
	return float64(m.rowsTotal.Load()) / (float64(ns) / float64(time.Second))
}

// CacheHits returns the total result-cache hits.
func (m *Metrics) CacheHits() uint64 {
	return m.cacheHits.Load()
}

// CacheMisses returns the total result-cache misses.
func (m *Metrics) CacheMisses() uint64 {
	return m.cacheMisses.Load()
}

// CacheHitRate returns the fraction of cache lookups that hit.
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// FieldErrors returns the number of field constraint violations recorded.
func (m *Metrics) FieldErrors() uint64 {
	return m.fieldErrors.Load()
}

// StructuralErrors returns the number of structural row errors recorded.
func (m *Metrics) StructuralErrors() uint64 {
	return m.structuralErrors.Load()
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.rowsTotal.Store(0)
	m.rowsValid.Store(0)
	m.runsTotal.Store(0)
	m.chunksDone.Store(0)
	m.runTimeTotal.Store(0)
	m.runTimeMin.Store(^uint64(0))
	m.runTimeMax.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.fieldErrors.Store(0)
	m.structuralErrors.Store(0)
}

// Snapshot is a point-in-time copy of metric values.
type Snapshot struct {
	RowsTotal        uint64
	RowsValid        uint64
	RunsTotal        uint64
	ChunksDone       uint64
	AverageRunTime   time.Duration
	MinRunTime       time.Duration
	MaxRunTime       time.Duration
	RowsPerSecond    float64
	CacheHits        uint64
	CacheMisses      uint64
	FieldErrors      uint64
	StructuralErrors uint64
}

// Snapshot returns a consistent-enough copy for reporting. Individual
// loads are atomic; cross-field consistency is best-effort.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RowsTotal:        m.RowsTotal(),
		RowsValid:        m.RowsValid(),
		RunsTotal:        m.RunsTotal(),
		ChunksDone:       m.ChunksDone(),
		AverageRunTime:   m.AverageRunTime(),
		MinRunTime:       m.MinRunTime(),
		MaxRunTime:       m.MaxRunTime(),
		RowsPerSecond:    m.RowsPerSecond(),
		CacheHits:        m.CacheHits(),
		CacheMisses:      m.CacheMisses(),
		FieldErrors:      m.FieldErrors(),
		StructuralErrors: m.StructuralErrors(),
	}
}
