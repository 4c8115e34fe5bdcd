// Package worker provides the bounded goroutine pool that validates row
// chunks in parallel.
//
// Chunks are disjoint, contiguous slices of the source, each owned by one
// worker; the only synchronization point is the reducer that collects
// partial results and merges them in start-row order. A worker count of 1
// degenerates to sequential execution with identical output.
//
// Example usage:
//
//	pool := worker.NewPool(ctx, validateChunk, 8)
//
//	go func() {
//	    for _, c := range chunks {
//	        if err := pool.Submit(c); err != nil {
//	            break // cancelled
//	        }
//	    }
//	    pool.Finish()
//	}()
//
//	var partials []*rv.Result
//	for r := range pool.Results() {
//	    partials = append(partials, r)
//	}
//	// sort partials by StartRow, then merge
package worker
