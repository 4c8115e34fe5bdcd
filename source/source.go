// Package source provides row source adapters that feed the validation
// engine: CSV, JSON Lines, in-memory sequences, and S3-hosted objects.
// The engine is agnostic to how bytes become records; anything that
// implements Source can be validated.
package source

import (
	"io"
	"path/filepath"
	"strings"

	rv "github.com/rowpipe/validator"
)

// Row is one raw row as produced by a source adapter. When the adapter
// could not parse the row into a record at all (for example a column-count
// mismatch against the header), Malformed carries the reason and Record is
// nil; such rows are reported under the reserved "*row*" field and never
// abort a run.
type Row struct {
	Record    rv.Record
	Malformed string
}

// Source produces an ordered, finite sequence of rows.
//
// Next returns io.EOF after the last row. Any other error is fatal to the
// run: it means the source itself failed (unreadable input), not that a
// single row was bad. Sources are not safe for concurrent use; the
// streaming adapter is the single reader.
type Source interface {
	Next() (Row, error)

	// Len returns the total row count and true when it is known up front,
	// or 0 and false for sources of unknown length.
	Len() (int64, bool)
}

// ForPath picks the adapter for a file path by extension: .jsonl and
// .ndjson parse as JSON Lines, everything else as CSV. The reader is
// not closed.
func ForPath(path string, r io.Reader) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return NewJSONL(r)
	default:
		return NewCSV(r)
	}
}

// ReadAll drains a source into memory. Intended for tests and small inputs;
// large inputs should go through the stream package instead.
func ReadAll(src Source) ([]Row, error) {
	var rows []Row
	for {
		row, err := src.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

// Memory is an in-memory Source over a fixed record slice.
type Memory struct {
	records []rv.Record
	pos     int
}

// NewMemory creates a Source over the given records.
func NewMemory(records []rv.Record) *Memory {
	return &Memory{records: records}
}

// Next implements Source.
func (m *Memory) Next() (Row, error) {
	if m.pos >= len(m.records) {
		return Row{}, io.EOF
	}
	row := Row{Record: m.records[m.pos]}
	m.pos++
	return row, nil
}

// Len implements Source. The length of an in-memory source is always known.
func (m *Memory) Len() (int64, bool) {
	return int64(len(m.records)), true
}
