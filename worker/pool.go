package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	rv "github.com/rowpipe/validator"
)

// Pool runs chunk validation across a bounded set of worker goroutines.
// It lives for one run: submit chunks, call Finish, then drain Results
// until the channel closes. Workers share no mutable state; each chunk is
// owned by exactly one worker until its partial result is handed over.
//
// Cancellation is honored between chunks only: a worker always completes
// the chunk it is processing, so partial results never cover a truncated
// chunk.
type Pool struct {
	workers int
	fn      ChunkFunc
	ctx     context.Context

	jobs    chan Chunk
	results chan *rv.Result

	wg       sync.WaitGroup
	finished atomic.Bool

	chunksSubmitted atomic.Uint64
	chunksCompleted atomic.Uint64
}

// NewPool creates a pool and starts its workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewPool(ctx context.Context, fn ChunkFunc, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		workers: workers,
		fn:      fn,
		ctx:     ctx,
		jobs:    make(chan Chunk, workers*2),
		results: make(chan *rv.Result, workers*2),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit hands a chunk to the pool, blocking while the job queue is full.
// It fails with the context error once the run is cancelled.
func (p *Pool) Submit(chunk Chunk) error {
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.jobs <- chunk:
		p.chunksSubmitted.Add(1)
		return nil
	}
}

// Results returns the partial-result channel. Partials arrive in
// completion order, not row order; the reducer restores row order.
// The channel closes after Finish once all workers have drained.
func (p *Pool) Results() <-chan *rv.Result {
	return p.results
}

// Finish signals that no more chunks will be submitted. The results
// channel closes once in-flight chunks complete. Safe to call once.
func (p *Pool) Finish() {
	if p.finished.Swap(true) {
		return
	}
	close(p.jobs)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Stats returns current pool progress.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:         p.workers,
		ChunksSubmitted: p.chunksSubmitted.Load(),
		ChunksCompleted: p.chunksCompleted.Load(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for chunk := range p.jobs {
		// Cancellation is checked between chunks; the current chunk
		// always runs to completion.
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.fn(chunk)
		p.chunksCompleted.Add(1)

		select {
		case <-p.ctx.Done():
			return
		case p.results <- result:
		}
	}
}
