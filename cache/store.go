package cache

import (
	"context"

	rv "github.com/rowpipe/validator"
)

// MemoryStore is an in-process rv.Store backed by the generic LRU.
// Suited to single-process pipelines that re-validate the same inputs
// within one run of the program.
type MemoryStore struct {
	lru *LRU[string, rv.Summary]
}

// verify interface conformance at compile time
var _ rv.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding at most capacity summaries.
func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{lru: NewLRU[string, rv.Summary](capacity)}
}

// Get implements rv.Store.
func (s *MemoryStore) Get(_ context.Context, contentHash string) (rv.Summary, bool, error) {
	sum, ok := s.lru.Get(contentHash)
	return sum, ok, nil
}

// Put implements rv.Store.
func (s *MemoryStore) Put(_ context.Context, contentHash string, summary rv.Summary) error {
	s.lru.Set(contentHash, summary)
	return nil
}

// Stats returns the underlying LRU counters.
func (s *MemoryStore) Stats() Stats {
	return s.lru.Stats()
}
