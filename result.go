package rowvalidator

import (
	"sync"
)

// Result contains the outcome of validating a sequence of rows.
// Errors are ordered by row index ascending, and within a row by schema
// declaration order. Invariant: ValidCount+InvalidCount == TotalRows.
//
// A Result is owned by a single goroutine; partial results produced by
// chunk workers are handed to the reducer before being merged. Use
// Release() to return pooled results when done.
type Result struct {
	TotalRows    uint64 `json:"totalRows"`
	ValidCount   uint64 `json:"validCount"`
	InvalidCount uint64 `json:"invalidCount"`

	// Errors holds every violation found. Capped by MaxErrors when set;
	// counts are always exact regardless of the cap.
	Errors []ValidationError `json:"errors,omitempty"`

	// StartRow is the absolute index of the first row this result covers.
	// Used by the reducer to order partial results; 0 for merged results.
	StartRow uint64 `json:"-"`
}

// resultPool holds reusable Result instances.
var resultPool = sync.Pool{
	New: func() any {
		return &Result{
			Errors: make([]ValidationError, 0, 32),
		}
	},
}

// AcquireResult gets a zeroed Result from the pool.
func AcquireResult() *Result {
	r := resultPool.Get().(*Result)
	r.Reset()
	return r
}

// Release returns the Result to the pool.
// After calling Release, the Result must not be used.
func (r *Result) Release() {
	if r == nil {
		return
	}
	// Don't pool results with oversized error slices
	if cap(r.Errors) <= 4096 {
		resultPool.Put(r)
	}
}

// Reset clears the result for reuse.
func (r *Result) Reset() {
	r.TotalRows = 0
	r.ValidCount = 0
	r.InvalidCount = 0
	r.Errors = r.Errors[:0]
	r.StartRow = 0
}

// RecordRow accumulates the outcome of one validated row. An empty errs
// slice counts the row as valid.
func (r *Result) RecordRow(errs []ValidationError) {
	r.TotalRows++
	if len(errs) == 0 {
		r.ValidCount++
		return
	}
	r.InvalidCount++
	r.Errors = append(r.Errors, errs...)
}

// Merge folds another result into this one. The caller is responsible for
// merging in ascending StartRow order; Merge itself is a pure reduction
// that sums counts and concatenates errors.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.TotalRows += other.TotalRows
	r.ValidCount += other.ValidCount
	r.InvalidCount += other.InvalidCount
	r.Errors = append(r.Errors, other.Errors...)
}

// Valid reports whether every row passed validation.
func (r *Result) Valid() bool {
	return r.InvalidCount == 0
}

// ErrorCount returns the number of collected errors. This can exceed
// InvalidCount when rows carry multiple violations.
func (r *Result) ErrorCount() int {
	return len(r.Errors)
}

// SuccessRate returns ValidCount/TotalRows as a percentage.
// It fails with ErrEmptyResult when the result covers no rows.
func (r *Result) SuccessRate() (float64, error) {
	if r.TotalRows == 0 {
		return 0, ErrEmptyResult
	}
	return float64(r.ValidCount) / float64(r.TotalRows) * 100, nil
}

// Summary returns the counts-only view used by the result cache.
func (r *Result) Summary() Summary {
	return Summary{
		TotalRows:    r.TotalRows,
		ValidCount:   r.ValidCount,
		InvalidCount: r.InvalidCount,
	}
}

// Clone creates a copy of the result (not pooled).
func (r *Result) Clone() *Result {
	clone := &Result{
		TotalRows:    r.TotalRows,
		ValidCount:   r.ValidCount,
		InvalidCount: r.InvalidCount,
		Errors:       make([]ValidationError, len(r.Errors)),
		StartRow:     r.StartRow,
	}
	copy(clone.Errors, r.Errors)
	return clone
}

// NewResult creates a new (non-pooled) result.
// Prefer AcquireResult() on hot paths.
func NewResult() *Result {
	return &Result{
		Errors: make([]ValidationError, 0, 8),
	}
}

// Summary is the fixed-schema counts record persisted by the result cache.
// Error lists are deliberately not cached to bound cache size.
type Summary struct {
	TotalRows    uint64 `json:"totalRows"`
	ValidCount   uint64 `json:"validCount"`
	InvalidCount uint64 `json:"invalidCount"`
}

// SuccessRate mirrors Result.SuccessRate for cached summaries.
func (s Summary) SuccessRate() (float64, error) {
	if s.TotalRows == 0 {
		return 0, ErrEmptyResult
	}
	return float64(s.ValidCount) / float64(s.TotalRows) * 100, nil
}

// FromSummary reconstructs a counts-only Result from a cached summary.
func FromSummary(s Summary) *Result {
	return &Result{
		TotalRows:    s.TotalRows,
		ValidCount:   s.ValidCount,
		InvalidCount: s.InvalidCount,
	}
}
