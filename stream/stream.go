// Package stream provides bounded-memory batch streaming over row sources.
//
// A Reader materializes one batch at a time and releases it before the next
// is read, so memory stays O(batch size) regardless of total source size.
// The absolute row counter is monotonic across batch boundaries, keeping
// row indexes globally consistent when streaming combines with chunked
// execution.
package stream

import (
	"context"
	"io"

	rv "github.com/rowpipe/validator"
	"github.com/rowpipe/validator/source"
)

// Batch is a contiguous slice of rows with its absolute start index.
type Batch struct {
	// Start is the absolute index of the first row in the batch.
	Start uint64

	// Rows holds the batch contents, at most the configured batch size.
	Rows []source.Row
}

// Reader pulls fixed-size batches from a row source.
// Not safe for concurrent use; it is the single reader of its source.
type Reader struct {
	src  source.Source
	size int
	next uint64
	err  error
}

// NewReader creates a batch reader. Non-positive sizes fall back to
// rv.DefaultBatchSize.
func NewReader(src source.Source, batchSize int) *Reader {
	if batchSize <= 0 {
		batchSize = rv.DefaultBatchSize
	}
	return &Reader{src: src, size: batchSize}
}

// Next returns the next batch. io.EOF signals a clean end of the source;
// any other error is a fatal source failure. A batch is never empty.
func (r *Reader) Next(ctx context.Context) (Batch, error) {
	if r.err != nil {
		return Batch{}, r.err
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	batch := Batch{Start: r.next, Rows: make([]source.Row, 0, r.size)}
	for len(batch.Rows) < r.size {
		row, err := r.src.Next()
		if err == io.EOF {
			r.err = io.EOF
			break
		}
		if err != nil {
			r.err = err
			if len(batch.Rows) == 0 {
				return Batch{}, err
			}
			// Hand back what was read; the error resurfaces on the
			// next call so no row is silently dropped or double-counted.
			break
		}
		batch.Rows = append(batch.Rows, row)
		r.next++
	}

	if len(batch.Rows) == 0 {
		return Batch{}, r.err
	}
	return batch, nil
}

// RowsRead returns the number of rows consumed so far across all batches.
func (r *Reader) RowsRead() uint64 {
	return r.next
}

// BatchResult carries the outcome of validating one streamed batch.
type BatchResult struct {
	// Start is the absolute index of the batch's first row.
	Start uint64

	// Rows is the number of rows in the batch.
	Rows int

	// Result holds the batch's validation outcome; nil when Err is set.
	Result *rv.Result

	// Err is set when the batch could not be validated (source failure
	// or cancellation). Field errors never appear here.
	Err error
}

// ValidateFunc validates one batch and returns its partial result.
type ValidateFunc func(ctx context.Context, batch Batch) (*rv.Result, error)

// Validator streams per-batch validation results over a channel, for
// callers that want incremental progress instead of one final Result.
type Validator struct {
	validate   ValidateFunc
	batchSize  int
	bufferSize int
}

// NewValidator creates a streaming validator around a batch validate
// function (typically engine.Validator.ValidateBatch).
func NewValidator(fn ValidateFunc) *Validator {
	return &Validator{
		validate:   fn,
		batchSize:  rv.DefaultBatchSize,
		bufferSize: 1,
	}
}

// WithBatchSize sets the rows per batch.
func (v *Validator) WithBatchSize(size int) *Validator {
	if size > 0 {
		v.batchSize = size
	}
	return v
}

// WithBufferSize sets the result channel buffer.
func (v *Validator) WithBufferSize(size int) *Validator {
	if size > 0 {
		v.bufferSize = size
	}
	return v
}

// ValidateStream validates the source batch by batch, emitting one
// BatchResult per batch in source order. The channel closes when the
// source is exhausted, a fatal error is emitted, or ctx is cancelled.
func (v *Validator) ValidateStream(ctx context.Context, src source.Source) <-chan *BatchResult {
	out := make(chan *BatchResult, v.bufferSize)

	go func() {
		defer close(out)

		reader := NewReader(src, v.batchSize)
		for {
			batch, err := reader.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				out <- &BatchResult{Start: reader.RowsRead(), Err: err}
				return
			}

			result, err := v.validate(ctx, batch)
			br := &BatchResult{Start: batch.Start, Rows: len(batch.Rows), Result: result, Err: err}

			select {
			case out <- br:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	return out
}

// Sum reduces streamed batch results into one Result. It returns the first
// batch error encountered, if any; counts then cover only the batches
// validated before the failure.
func Sum(results <-chan *BatchResult) (*rv.Result, error) {
	total := rv.NewResult()
	for br := range results {
		if br.Err != nil {
			return total, br.Err
		}
		total.Merge(br.Result)
	}
	return total, nil
}
