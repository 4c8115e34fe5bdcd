package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	rv "github.com/rowpipe/validator"
	"github.com/rowpipe/validator/cache"
	"github.com/rowpipe/validator/schema"
	"github.com/rowpipe/validator/source"
	"github.com/rowpipe/validator/stream"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const usersCSV = "id,age\n1,25\n2,15\n,200\n"

func TestValidateFile_CSV(t *testing.T) {
	path := writeFile(t, "users.csv", usersCSV)

	v := New(ageSchema(t), rv.WithParallel(false))
	result, err := v.ValidateFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if result.TotalRows != 3 || result.ValidCount != 1 || result.InvalidCount != 2 {
		t.Errorf("counts = %d/%d/%d; want 3/1/2",
			result.TotalRows, result.ValidCount, result.InvalidCount)
	}
}

func TestValidateFile_JSONL(t *testing.T) {
	path := writeFile(t, "users.jsonl",
		`{"id": "1", "age": "25"}`+"\n"+`{"id": 2, "age": 15}`+"\n")

	v := New(ageSchema(t), rv.WithParallel(false))
	result, err := v.ValidateFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if result.TotalRows != 2 || result.InvalidCount != 1 {
		t.Errorf("counts = %d total / %d invalid; want 2/1", result.TotalRows, result.InvalidCount)
	}
}

func TestStreamValidate_JSONLFile(t *testing.T) {
	// Streaming a file must pick the adapter by extension, exactly like
	// ValidateFile; a JSONL file read as CSV would fail on the first quote.
	path := writeFile(t, "users.jsonl",
		`{"id": "1", "age": "25"}`+"\n"+`{"id": "2", "age": "15"}`+"\n")

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	v := New(ageSchema(t), rv.WithParallel(false))
	total, err := stream.Sum(v.StreamValidate(context.Background(), source.ForPath(path, f)))
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	if total.TotalRows != 2 || total.InvalidCount != 1 {
		t.Errorf("counts = %d total / %d invalid; want 2/1", total.TotalRows, total.InvalidCount)
	}
}

func TestValidateFile_Missing(t *testing.T) {
	v := New(ageSchema(t))
	_, err := v.ValidateFile(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, rv.ErrSourceRead) {
		t.Errorf("error = %v; want ErrSourceRead", err)
	}
}

func TestValidateFile_CacheRoundTrip(t *testing.T) {
	path := writeFile(t, "users.csv", usersCSV)

	store := cache.NewMemoryStore(16)
	metrics := rv.NewMetrics()
	v := New(ageSchema(t),
		rv.WithParallel(false),
		rv.WithCache(store),
		rv.WithMetrics(metrics),
	)

	first, err := v.ValidateFile(context.Background(), path)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := v.ValidateFile(context.Background(), path)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if metrics.CacheMisses() != 1 || metrics.CacheHits() != 1 {
		t.Errorf("misses/hits = %d/%d; want 1/1", metrics.CacheMisses(), metrics.CacheHits())
	}

	// The cached result carries counts only; per-row errors are not replayed.
	if second.TotalRows != first.TotalRows ||
		second.ValidCount != first.ValidCount ||
		second.InvalidCount != first.InvalidCount {
		t.Errorf("cached counts %d/%d/%d differ from first run %d/%d/%d",
			second.TotalRows, second.ValidCount, second.InvalidCount,
			first.TotalRows, first.ValidCount, first.InvalidCount)
	}
	if len(second.Errors) != 0 {
		t.Errorf("cached result carries %d row errors; want none", len(second.Errors))
	}
}

func TestValidateFile_CacheKeyIsContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	if err := os.WriteFile(a, []byte(usersCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte(usersCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	metrics := rv.NewMetrics()
	v := New(ageSchema(t),
		rv.WithParallel(false),
		rv.WithCache(cache.NewMemoryStore(16)),
		rv.WithMetrics(metrics),
	)

	if _, err := v.ValidateFile(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	// Same bytes under a different name must hit.
	if _, err := v.ValidateFile(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	if metrics.CacheHits() != 1 {
		t.Errorf("CacheHits() = %d; want 1 for identical content", metrics.CacheHits())
	}

	// Changed content must miss.
	if err := os.WriteFile(b, []byte(usersCSV+"9,30\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := v.ValidateFile(context.Background(), b); err != nil {
		t.Fatal(err)
	}
	if metrics.CacheMisses() != 2 {
		t.Errorf("CacheMisses() = %d; want 2 after content change", metrics.CacheMisses())
	}
}

func TestValidateFile_StoreFailureIsNotFatal(t *testing.T) {
	path := writeFile(t, "users.csv", usersCSV)

	v := New(ageSchema(t),
		rv.WithParallel(false),
		rv.WithCache(failingStore{}),
	)
	result, err := v.ValidateFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ValidateFile() error = %v; a broken store must not fail the run", err)
	}
	if result.TotalRows != 3 {
		t.Errorf("TotalRows = %d; want 3", result.TotalRows)
	}
}

func TestValidateFile_XXHasher(t *testing.T) {
	path := writeFile(t, "users.csv", usersCSV)

	metrics := rv.NewMetrics()
	v := New(ageSchema(t),
		rv.WithParallel(false),
		rv.WithCache(cache.NewMemoryStore(16)),
		rv.WithHasher(cache.XXHasher{}),
		rv.WithMetrics(metrics),
	)
	if _, err := v.ValidateFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	if _, err := v.ValidateFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	if metrics.CacheHits() != 1 {
		t.Errorf("CacheHits() = %d; want 1", metrics.CacheHits())
	}
}

func TestValidateOneWithSchemaParity(t *testing.T) {
	s := mustSchema(t, schema.NewBuilder().Field("id", schema.Integer).Required().Done())
	if errs := ValidateOne(s, rv.Record{"id": "7"}); len(errs) != 0 {
		t.Errorf("ValidateOne() = %v; want no errors", errs)
	}
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (rv.Summary, bool, error) {
	return rv.Summary{}, false, errors.New("store down")
}

func (failingStore) Put(context.Context, string, rv.Summary) error {
	return errors.New("store down")
}
