package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	rv "github.com/rowpipe/validator"
	"github.com/rowpipe/validator/pool"
	"github.com/rowpipe/validator/source"
	"github.com/rowpipe/validator/stream"
	"github.com/rowpipe/validator/worker"
)

// ValidateSource validates every row of the source, returning one merged
// Result ordered by absolute row index. Rows are pulled in bounded batches
// and dispatched to the worker pool chunk by chunk, so memory stays
// bounded for arbitrarily large sources.
//
// Parallel and sequential execution produce identical results; worker
// scheduling only affects wall-clock time. Cancellation lets in-flight
// chunks complete, then fails with ErrCancelled — never a partial Result.
func (v *Validator) ValidateSource(ctx context.Context, src source.Source) (*rv.Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	chunkSize := v.chunkSizeFor(src)
	parallel := v.opts.Parallel && v.opts.WorkerCount != 1

	v.logger.Debug("validation run started",
		"run", runID,
		"parallel", parallel,
		"workers", v.opts.WorkerCount,
		"chunkSize", chunkSize,
		"batchSize", v.opts.BatchSize,
	)

	var (
		result *rv.Result
		err    error
	)
	if parallel {
		result, err = v.runParallel(ctx, src, chunkSize)
	} else {
		result, err = v.runSequential(ctx, src, chunkSize)
	}
	if err != nil {
		v.logger.Debug("validation run failed", "run", runID, "error", err)
		return nil, err
	}

	v.capErrors(result)

	if v.metrics != nil {
		v.metrics.RecordRun(time.Since(start))
	}
	v.logger.Debug("validation run finished",
		"run", runID,
		"rows", result.TotalRows,
		"invalid", result.InvalidCount,
		"duration", time.Since(start),
	)
	return result, nil
}

// ValidateBatch validates one streamed batch, preserving row order.
// It is the ValidateFunc plugged into stream.Validator.
func (v *Validator) ValidateBatch(ctx context.Context, batch stream.Batch) (*rv.Result, error) {
	chunkSize := v.opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = rv.DefaultChunkSize
	}
	chunks := cutChunks(batch, chunkSize)

	if !v.opts.Parallel || v.opts.WorkerCount == 1 || len(chunks) == 1 {
		merged := rv.NewResult()
		merged.StartRow = batch.Start
		for _, c := range chunks {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", rv.ErrCancelled, err)
			}
			partial := v.validateChunk(c)
			merged.Merge(partial)
			partial.Release()
		}
		v.capErrors(merged)
		return merged, nil
	}

	merged, err := v.reduceChunks(ctx, chunks, batch.Start)
	if err != nil {
		return nil, err
	}
	v.capErrors(merged)
	return merged, nil
}

// StreamValidate emits one partial result per batch over a channel, in
// source order, for callers that want incremental progress on huge inputs.
// Use stream.Sum to reduce the channel into a single Result.
func (v *Validator) StreamValidate(ctx context.Context, src source.Source) <-chan *stream.BatchResult {
	return stream.NewValidator(v.ValidateBatch).
		WithBatchSize(v.opts.BatchSize).
		ValidateStream(ctx, src)
}

// runSequential validates batches inline on the calling goroutine.
func (v *Validator) runSequential(ctx context.Context, src source.Source, chunkSize int) (*rv.Result, error) {
	merged := rv.NewResult()
	reader := stream.NewReader(src, v.opts.BatchSize)

	for {
		batch, err := reader.Next(ctx)
		if err == io.EOF {
			return merged, nil
		}
		if err != nil {
			return nil, v.classifyRunError(ctx, err)
		}

		for _, c := range cutChunks(batch, chunkSize) {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %v", rv.ErrCancelled, err)
			}
			partial := v.validateChunk(c)
			merged.Merge(partial)
			partial.Release()
		}
	}
}

// runParallel feeds chunks from bounded batches into a worker pool and
// merges the partial results in start-row order.
func (v *Validator) runParallel(ctx context.Context, src source.Source, chunkSize int) (*rv.Result, error) {
	p := worker.NewPool(ctx, v.validateChunk, v.opts.WorkerCount)

	// The submitter owns the source; the pool's job queue provides the
	// backpressure that keeps memory bounded.
	submitErr := make(chan error, 1)
	go func() {
		defer p.Finish()

		reader := stream.NewReader(src, v.opts.BatchSize)
		for {
			batch, err := reader.Next(ctx)
			if err == io.EOF {
				submitErr <- nil
				return
			}
			if err != nil {
				submitErr <- err
				return
			}
			for _, c := range cutChunks(batch, chunkSize) {
				if err := p.Submit(c); err != nil {
					submitErr <- err
					return
				}
			}
		}
	}()

	var partials []*rv.Result
	for partial := range p.Results() {
		partials = append(partials, partial)
	}
	err := <-submitErr

	if ctxErr := ctx.Err(); ctxErr != nil {
		releaseAll(partials)
		return nil, fmt.Errorf("%w: %v", rv.ErrCancelled, ctxErr)
	}
	if err != nil {
		releaseAll(partials)
		return nil, v.classifyRunError(ctx, err)
	}

	// Result ordering is by original row position, never completion time.
	sort.Slice(partials, func(i, j int) bool {
		return partials[i].StartRow < partials[j].StartRow
	})

	merged := rv.NewResult()
	for _, partial := range partials {
		merged.Merge(partial)
		partial.Release()
	}
	return merged, nil
}

// validateChunk is the ChunkFunc run by pool workers. It owns the chunk
// exclusively and produces a partial result tagged with the start row.
func (v *Validator) validateChunk(chunk worker.Chunk) *rv.Result {
	var result *rv.Result
	if v.opts.EnablePooling {
		result = rv.AcquireResult()
	} else {
		result = rv.NewResult()
	}
	result.StartRow = chunk.Start

	scratchPtr := pool.AcquireErrors()
	scratch := *scratchPtr

	for i := range chunk.Rows {
		row := &chunk.Rows[i]
		idx := chunk.Start + uint64(i)

		scratch = scratch[:0]
		if row.Malformed != "" {
			scratch = append(scratch, rv.ValidationError{
				RowIndex: idx,
				Field:    rv.FieldRow,
				Message:  row.Malformed,
			})
		} else {
			scratch = v.validateRecordInto(row.Record, scratch)
			for j := range scratch {
				scratch[j].RowIndex = idx
			}
		}
		result.RecordRow(scratch)
	}

	*scratchPtr = scratch
	pool.ReleaseErrors(scratchPtr)

	if v.metrics != nil {
		v.metrics.RecordChunk(result.TotalRows, result.ValidCount)
		v.metrics.RecordErrors(result.Errors)
	}
	return result
}

// capErrors applies the MaxErrors retention cap to a merged result.
// Counts stay exact past the cap.
func (v *Validator) capErrors(r *rv.Result) {
	if v.opts.MaxErrors > 0 && len(r.Errors) > v.opts.MaxErrors {
		r.Errors = r.Errors[:v.opts.MaxErrors]
	}
}

// reduceChunks runs a fixed chunk set through a pool and merges in order.
func (v *Validator) reduceChunks(ctx context.Context, chunks []worker.Chunk, startRow uint64) (*rv.Result, error) {
	p := worker.NewPool(ctx, v.validateChunk, v.opts.WorkerCount)

	submitErr := make(chan error, 1)
	go func() {
		defer p.Finish()
		for _, c := range chunks {
			if err := p.Submit(c); err != nil {
				submitErr <- err
				return
			}
		}
		submitErr <- nil
	}()

	var partials []*rv.Result
	for partial := range p.Results() {
		partials = append(partials, partial)
	}
	err := <-submitErr

	if ctxErr := ctx.Err(); ctxErr != nil {
		releaseAll(partials)
		return nil, fmt.Errorf("%w: %v", rv.ErrCancelled, ctxErr)
	}
	if err != nil {
		releaseAll(partials)
		return nil, err
	}

	sort.Slice(partials, func(i, j int) bool {
		return partials[i].StartRow < partials[j].StartRow
	})

	merged := rv.NewResult()
	merged.StartRow = startRow
	for _, partial := range partials {
		merged.Merge(partial)
		partial.Release()
	}
	return merged, nil
}

// chunkSizeFor derives the chunk size: an explicit option wins; otherwise
// aim for at least workerCount*4 chunks when the source length is known,
// capped at the default grain.
func (v *Validator) chunkSizeFor(src source.Source) int {
	if v.opts.ChunkSize > 0 {
		return v.opts.ChunkSize
	}
	if n, known := src.Len(); known && n > 0 {
		target := int(n) / (v.opts.WorkerCount * 4)
		if target < 1 {
			target = 1
		}
		if target > rv.DefaultChunkSize {
			target = rv.DefaultChunkSize
		}
		return target
	}
	return rv.DefaultChunkSize
}

// cutChunks partitions a batch into contiguous chunks of at most size rows.
func cutChunks(batch stream.Batch, size int) []worker.Chunk {
	if size <= 0 {
		size = rv.DefaultChunkSize
	}
	n := len(batch.Rows)
	chunks := make([]worker.Chunk, 0, (n+size-1)/size)
	for off := 0; off < n; off += size {
		end := off + size
		if end > n {
			end = n
		}
		chunks = append(chunks, worker.Chunk{
			Start: batch.Start + uint64(off),
			Rows:  batch.Rows[off:end],
		})
	}
	return chunks
}

// classifyRunError maps a run-stopping error to the engine's taxonomy.
func (v *Validator) classifyRunError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return fmt.Errorf("%w: %v", rv.ErrCancelled, err)
	}
	return fmt.Errorf("%w: %v", rv.ErrSourceRead, err)
}

// releaseAll returns partial results to the pool after a failed run.
func releaseAll(partials []*rv.Result) {
	for _, p := range partials {
		p.Release()
	}
}
