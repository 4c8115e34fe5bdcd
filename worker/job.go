package worker

import (
	rv "github.com/rowpipe/validator"
	"github.com/rowpipe/validator/source"
)

// Chunk is one unit of work: a contiguous run of rows starting at an
// absolute index. A chunk is owned exclusively by the worker processing it
// and is discarded after its partial result is produced.
type Chunk struct {
	// Start is the absolute index of the chunk's first row.
	Start uint64

	// Rows holds the chunk contents in source order.
	Rows []source.Row
}

// ChunkFunc validates one chunk and returns its partial result, with
// Result.StartRow set to Chunk.Start. It must be safe for concurrent use
// and must process the whole chunk: per-row atomicity requires that a
// chunk is never partially validated, even under cancellation.
type ChunkFunc func(chunk Chunk) *rv.Result

// Stats describes pool progress.
type Stats struct {
	Workers         int
	ChunksSubmitted uint64
	ChunksCompleted uint64
}
