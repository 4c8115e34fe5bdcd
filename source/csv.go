package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	rv "github.com/rowpipe/validator"
)

// CSV adapts an io.Reader containing header-prefixed CSV into a row Source.
// The first record is taken as the header; every subsequent record becomes
// a Record keyed by header column names. Empty cells are the null marker.
//
// Rows whose column count does not match the header, and rows the CSV
// parser rejects (e.g. bare quotes), surface as Malformed rows rather than
// aborting the run.
type CSV struct {
	reader  *csv.Reader
	header  []string
	started bool
	done    bool
}

// NewCSV creates a CSV source over r. The reader is not closed.
func NewCSV(r io.Reader) *CSV {
	cr := csv.NewReader(r)
	// Column-count enforcement is ours: mismatches become *row* errors.
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &CSV{reader: cr}
}

// Header returns the column names once the header has been read.
func (c *CSV) Header() []string {
	return c.header
}

// Next implements Source.
func (c *CSV) Next() (Row, error) {
	if c.done {
		return Row{}, io.EOF
	}

	if !c.started {
		hdr, err := c.reader.Read()
		if err == io.EOF {
			c.done = true
			return Row{}, io.EOF
		}
		if err != nil {
			c.done = true
			return Row{}, fmt.Errorf("reading CSV header: %w", err)
		}
		c.header = make([]string, len(hdr))
		copy(c.header, hdr)
		c.started = true
	}

	rec, err := c.reader.Read()
	if err == io.EOF {
		c.done = true
		return Row{}, io.EOF
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// A single unparseable row is structural, not fatal.
			return Row{Malformed: fmt.Sprintf("malformed row: %v", parseErr.Err)}, nil
		}
		c.done = true
		return Row{}, fmt.Errorf("reading CSV record: %w", err)
	}

	if len(rec) != len(c.header) {
		return Row{Malformed: fmt.Sprintf("malformed row: expected %d columns, got %d", len(c.header), len(rec))}, nil
	}

	record := make(rv.Record, len(c.header))
	for i, name := range c.header {
		record[name] = rec[i]
	}
	return Row{Record: record}, nil
}

// Len implements Source. CSV streams have unknown length.
func (c *CSV) Len() (int64, bool) {
	return 0, false
}
