package rowvalidator

import (
	"context"
	"io"
	"log/slog"
	"runtime"
)

// Default sizing. DefaultChunkSize matches the grain the executor falls back
// to when the source length is unknown; DefaultBatchSize bounds streaming
// memory.
const (
	DefaultChunkSize = 5000
	DefaultBatchSize = 10000
)

// Store persists counts-only validation summaries keyed by content hash.
// Implementations live in the cache package. The keyspace is append-only:
// a changed input produces a new hash, and stale entries are simply
// orphaned (external garbage collection, not engine responsibility).
type Store interface {
	// Get returns the summary for the hash, and whether it was found.
	Get(ctx context.Context, contentHash string) (Summary, bool, error)

	// Put records the summary under the hash.
	Put(ctx context.Context, contentHash string, summary Summary) error
}

// Hasher digests an input's full byte content into a cache key.
type Hasher interface {
	// Hash consumes the reader and returns the hex-encoded digest.
	Hash(r io.Reader) (string, error)
}

// Option configures a validation run.
type Option func(*Options)

// Options holds all configuration for the validation engine.
type Options struct {
	// Execution
	Parallel    bool
	ChunkSize   int
	WorkerCount int
	BatchSize   int

	// MaxErrors caps the number of errors retained in a Result
	// (0 = unlimited). Counts stay exact past the cap.
	MaxErrors int

	// Caching
	UseCache   bool
	CacheStore Store
	Hasher     Hasher

	// Rule is the optional custom predicate invoked once per record.
	Rule Rule

	// Observability
	Logger  *slog.Logger
	Metrics *Metrics

	// EnablePooling turns on sync.Pool reuse of results and error slices.
	EnablePooling bool
}

// DefaultOptions returns the default configuration: parallel execution
// sized to the machine, pooling on, caching off.
func DefaultOptions() *Options {
	return &Options{
		Parallel:      true,
		ChunkSize:     0, // derived from source length, see engine
		WorkerCount:   runtime.NumCPU(),
		BatchSize:     DefaultBatchSize,
		MaxErrors:     0,
		UseCache:      false,
		EnablePooling: true,
	}
}

// WithParallel enables or disables chunked parallel execution.
// Sequential execution produces identical results; only wall-clock differs.
func WithParallel(enable bool) Option {
	return func(o *Options) {
		o.Parallel = enable
	}
}

// WithChunkSize sets the number of rows per worker chunk.
// Non-positive values keep the derived default.
func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

// WithWorkerCount sets the worker pool size. Non-positive values keep the
// runtime.NumCPU() default. A value of 1 degenerates to sequential execution.
func WithWorkerCount(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.WorkerCount = n
		}
	}
}

// WithBatchSize sets the streaming batch size, bounding peak memory.
func WithBatchSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.BatchSize = size
		}
	}
}

// WithMaxErrors caps the number of errors retained per Result (0 =
// unlimited). In streaming mode the cap applies to each batch result.
// Counts stay exact past the cap.
func WithMaxErrors(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.MaxErrors = n
		}
	}
}

// WithCache enables result caching against the given store.
func WithCache(store Store) Option {
	return func(o *Options) {
		o.UseCache = store != nil
		o.CacheStore = store
	}
}

// WithHasher overrides the content hasher used for cache keys.
// The default is SHA-256; large-input callers can trade collision
// resistance for speed with the xxhash variant.
func WithHasher(h Hasher) Option {
	return func(o *Options) {
		if h != nil {
			o.Hasher = h
		}
	}
}

// WithRule attaches a custom predicate evaluated once per record.
func WithRule(rule Rule) Option {
	return func(o *Options) {
		o.Rule = rule
	}
}

// WithLogger sets the structured logger. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// WithMetrics attaches a metrics collector to the run.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithPooling enables or disables sync.Pool object reuse.
func WithPooling(enable bool) Option {
	return func(o *Options) {
		o.EnablePooling = enable
	}
}
