package source

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/buger/jsonparser"

	rv "github.com/rowpipe/validator"
)

// maxJSONLLine bounds a single JSON Lines row at 16 MiB.
const maxJSONLLine = 16 << 20

// JSONL adapts an io.Reader of JSON Lines (one object per line) into a row
// Source. Blank lines are skipped. Scalar values are normalized to their
// string form so they validate like CSV cells: numbers and booleans keep
// their literal text, null becomes the null marker. Nested objects and
// arrays are kept as raw JSON text (the schema model has no nested kinds,
// so a constrained field will fail its type check).
//
// A line that is not a JSON object surfaces as a Malformed row.
type JSONL struct {
	scanner *bufio.Scanner
	line    uint64
	err     error
}

// NewJSONL creates a JSONL source over r. The reader is not closed.
func NewJSONL(r io.Reader) *JSONL {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)
	return &JSONL{scanner: sc}
}

// Next implements Source.
func (j *JSONL) Next() (Row, error) {
	if j.err != nil {
		return Row{}, j.err
	}

	for j.scanner.Scan() {
		j.line++
		data := j.scanner.Bytes()
		if len(strings.TrimSpace(string(data))) == 0 {
			continue
		}

		record := make(rv.Record)
		err := jsonparser.ObjectEach(data, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
			name := string(key)
			switch vt {
			case jsonparser.String:
				s, perr := jsonparser.ParseString(value)
				if perr != nil {
					return perr
				}
				record[name] = s
			case jsonparser.Null:
				record[name] = ""
			default:
				// Numbers, booleans, and nested values keep their raw text.
				record[name] = string(value)
			}
			return nil
		})
		if err != nil {
			return Row{Malformed: fmt.Sprintf("malformed row: line %d: invalid JSON object: %v", j.line, err)}, nil
		}
		return Row{Record: record}, nil
	}

	if err := j.scanner.Err(); err != nil {
		j.err = fmt.Errorf("reading JSON lines: %w", err)
		return Row{}, j.err
	}
	j.err = io.EOF
	return Row{}, io.EOF
}

// Len implements Source. JSONL streams have unknown length.
func (j *JSONL) Len() (int64, bool) {
	return 0, false
}
