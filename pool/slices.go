// Package pool provides sync.Pool-backed reuse of the slices churned by
// the validation hot path.
package pool

import (
	"sync"

	rv "github.com/rowpipe/validator"
)

// errorSlicePool holds reusable scratch slices for per-row violations.
var errorSlicePool = sync.Pool{
	New: func() any {
		s := make([]rv.ValidationError, 0, 16)
		return &s
	},
}

// AcquireErrors gets an empty error slice from the pool.
func AcquireErrors() *[]rv.ValidationError {
	s := errorSlicePool.Get().(*[]rv.ValidationError)
	*s = (*s)[:0]
	return s
}

// ReleaseErrors returns an error slice to the pool.
func ReleaseErrors(s *[]rv.ValidationError) {
	if s == nil {
		return
	}
	// Don't pool oversized slices
	if cap(*s) <= 1024 {
		errorSlicePool.Put(s)
	}
}
