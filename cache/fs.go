package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	rv "github.com/rowpipe/validator"
)

// FSStore persists one JSON summary file per content hash under a cache
// directory. The keyspace is append-only: entries for stale inputs are
// simply orphaned and can be swept by external tooling or the optional
// TTL. Safe for concurrent use across processes via atomic rename.
type FSStore struct {
	dir string
	ttl time.Duration // 0 = entries never expire
}

var _ rv.Store = (*FSStore)(nil)

// fsEntry is the on-disk layout of one cache file.
type fsEntry struct {
	ContentHash string     `json:"contentHash"`
	CreatedAt   time.Time  `json:"createdAt"`
	Summary     rv.Summary `json:"summary"`
}

// NewFSStore creates (if needed) the cache directory and returns a store
// over it. A non-zero ttl makes Get treat older entries as absent;
// expired files are removed lazily.
func NewFSStore(dir string, ttl time.Duration) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &FSStore{dir: dir, ttl: ttl}, nil
}

func (s *FSStore) path(contentHash string) string {
	return filepath.Join(s.dir, contentHash+".json")
}

// Get implements rv.Store.
func (s *FSStore) Get(_ context.Context, contentHash string) (rv.Summary, bool, error) {
	data, err := os.ReadFile(s.path(contentHash))
	if os.IsNotExist(err) {
		return rv.Summary{}, false, nil
	}
	if err != nil {
		return rv.Summary{}, false, fmt.Errorf("reading cache entry: %w", err)
	}

	var entry fsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is treated as a miss; the next Put rewrites it.
		return rv.Summary{}, false, nil
	}

	if s.ttl > 0 && time.Since(entry.CreatedAt) >= s.ttl {
		_ = os.Remove(s.path(contentHash))
		return rv.Summary{}, false, nil
	}
	return entry.Summary, true, nil
}

// Put implements rv.Store. The entry is written to a temp file and
// renamed into place so concurrent readers never observe a torn write.
func (s *FSStore) Put(_ context.Context, contentHash string, summary rv.Summary) error {
	entry := fsEntry{
		ContentHash: contentHash,
		CreatedAt:   time.Now().UTC(),
		Summary:     summary,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(contentHash)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("committing cache entry: %w", err)
	}
	return nil
}

// Sweep removes expired entries. A no-op when the store has no TTL.
// It returns the number of entries removed.
func (s *FSStore) Sweep() (int, error) {
	if s.ttl == 0 {
		return 0, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0, err
	}

	removed := 0
	cutoff := time.Now().Add(-s.ttl)
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry fsEntry
		if err := json.Unmarshal(data, &entry); err != nil || entry.CreatedAt.Before(cutoff) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}
