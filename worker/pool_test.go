package worker

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	rv "github.com/rowpipe/validator"
	"github.com/rowpipe/validator/source"
)

// countRows is a trivial ChunkFunc that tags each partial with its start row.
func countRows(chunk Chunk) *rv.Result {
	r := rv.NewResult()
	r.StartRow = chunk.Start
	for range chunk.Rows {
		r.RecordRow(nil)
	}
	return r
}

func makeChunks(n, rowsPer int) []Chunk {
	chunks := make([]Chunk, n)
	for i := range chunks {
		chunks[i] = Chunk{
			Start: uint64(i * rowsPer),
			Rows:  make([]source.Row, rowsPer),
		}
	}
	return chunks
}

func TestPool_AllChunksComplete(t *testing.T) {
	p := NewPool(context.Background(), countRows, 4)

	chunks := makeChunks(20, 3)
	go func() {
		defer p.Finish()
		for _, c := range chunks {
			if err := p.Submit(c); err != nil {
				t.Errorf("Submit() error = %v", err)
				return
			}
		}
	}()

	var partials []*rv.Result
	for r := range p.Results() {
		partials = append(partials, r)
	}

	if len(partials) != len(chunks) {
		t.Fatalf("got %d partials; want %d", len(partials), len(chunks))
	}

	// Completion order is arbitrary; start rows restore source order.
	sort.Slice(partials, func(i, j int) bool { return partials[i].StartRow < partials[j].StartRow })
	for i, r := range partials {
		if r.StartRow != uint64(i*3) {
			t.Errorf("partial[%d].StartRow = %d; want %d", i, r.StartRow, i*3)
		}
		if r.TotalRows != 3 {
			t.Errorf("partial[%d].TotalRows = %d; want 3", i, r.TotalRows)
		}
	}

	stats := p.Stats()
	if stats.Workers != 4 || stats.ChunksSubmitted != 20 || stats.ChunksCompleted != 20 {
		t.Errorf("Stats() = %+v; want 4 workers, 20 submitted, 20 completed", stats)
	}
}

func TestPool_DefaultWorkerCount(t *testing.T) {
	p := NewPool(context.Background(), countRows, 0)
	defer p.Finish()

	if p.Stats().Workers < 1 {
		t.Errorf("Workers = %d; want at least 1 for workers<=0", p.Stats().Workers)
	}
}

func TestPool_SubmitAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, countRows, 2)
	cancel()

	err := p.Submit(Chunk{Rows: make([]source.Row, 1)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() error = %v; want context.Canceled", err)
	}

	p.Finish()
	for range p.Results() {
	}
}

func TestPool_InFlightChunkCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	fn := func(chunk Chunk) *rv.Result {
		close(started)
		time.Sleep(10 * time.Millisecond)
		return countRows(chunk)
	}

	p := NewPool(ctx, fn, 1)
	if err := p.Submit(Chunk{Rows: make([]source.Row, 1)}); err != nil {
		t.Fatal(err)
	}

	<-started
	cancel()
	p.Finish()

	// The chunk in flight when cancel fired still runs to completion.
	deadline := time.After(time.Second)
	for p.Stats().ChunksCompleted != 1 {
		select {
		case <-deadline:
			t.Fatal("in-flight chunk never completed after cancellation")
		case <-time.After(time.Millisecond):
		}
	}

	for range p.Results() {
	}
}

func TestPool_FinishIdempotent(t *testing.T) {
	p := NewPool(context.Background(), countRows, 2)
	p.Finish()
	p.Finish() // second call must not panic on a closed channel

	for range p.Results() {
	}
}

func TestPool_ResultsCloseAfterFinish(t *testing.T) {
	p := NewPool(context.Background(), countRows, 2)
	if err := p.Submit(Chunk{Rows: make([]source.Row, 2)}); err != nil {
		t.Fatal(err)
	}
	p.Finish()

	n := 0
	for range p.Results() {
		n++
	}
	if n != 1 {
		t.Errorf("drained %d results; want 1", n)
	}
}
