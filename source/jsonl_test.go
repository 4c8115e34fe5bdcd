package source

import (
	"io"
	"reflect"
	"strings"
	"testing"

	rv "github.com/rowpipe/validator"
)

func TestJSONL_ScalarNormalization(t *testing.T) {
	input := `{"id": "abc", "count": 42, "ratio": 0.5, "active": true, "note": null}`
	src := NewJSONL(strings.NewReader(input + "\n"))

	rows, err := ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows; want 1", len(rows))
	}

	want := rv.Record{
		"id":     "abc",
		"count":  "42",
		"ratio":  "0.5",
		"active": "true",
		"note":   "",
	}
	if !reflect.DeepEqual(rows[0].Record, want) {
		t.Errorf("record = %v; want %v", rows[0].Record, want)
	}
}

func TestJSONL_BlankLinesSkipped(t *testing.T) {
	input := `{"a": "1"}` + "\n\n   \n" + `{"a": "2"}` + "\n"
	rows, err := ReadAll(NewJSONL(strings.NewReader(input)))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows; want blank lines skipped, 2 rows", len(rows))
	}
}

func TestJSONL_MalformedLine(t *testing.T) {
	input := `{"a": "1"}` + "\n" + `not json at all` + "\n" + `{"a": "3"}` + "\n"
	rows, err := ReadAll(NewJSONL(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("ReadAll() error = %v; a bad line must not abort the stream", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows; want 3", len(rows))
	}
	if rows[1].Malformed == "" {
		t.Error("rows[1] should surface as malformed")
	}
	if !strings.Contains(rows[1].Malformed, "line 2") {
		t.Errorf("Malformed = %q; want the input line number", rows[1].Malformed)
	}
	if rows[0].Malformed != "" || rows[2].Malformed != "" {
		t.Error("lines around the malformed one must parse normally")
	}
}

func TestJSONL_NestedValuesKeptRaw(t *testing.T) {
	rows, err := ReadAll(NewJSONL(strings.NewReader(`{"tags": ["a", "b"]}` + "\n")))
	if err != nil {
		t.Fatal(err)
	}
	if got := rows[0].Record["tags"]; got != `["a", "b"]` {
		t.Errorf("tags = %q; want the raw JSON text", got)
	}
}

func TestJSONL_EscapedStrings(t *testing.T) {
	rows, err := ReadAll(NewJSONL(strings.NewReader(`{"msg": "line\nbreak"}` + "\n")))
	if err != nil {
		t.Fatal(err)
	}
	if got := rows[0].Record["msg"]; got != "line\nbreak" {
		t.Errorf("msg = %q; want the unescaped string", got)
	}
}

func TestJSONL_EmptyInput(t *testing.T) {
	src := NewJSONL(strings.NewReader(""))
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("Next() = %v; want io.EOF", err)
	}
	if _, err := src.Next(); err != io.EOF {
		t.Errorf("second Next() = %v; want sticky io.EOF", err)
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path      string
		wantJSONL bool
	}{
		{"data.csv", false},
		{"data.jsonl", true},
		{"data.ndjson", true},
		{"DATA.JSONL", true},
		{"data.txt", false},
		{"data", false},
	}
	for _, tt := range tests {
		src := ForPath(tt.path, strings.NewReader(""))
		if _, isJSONL := src.(*JSONL); isJSONL != tt.wantJSONL {
			t.Errorf("ForPath(%q) = %T; want JSONL %v", tt.path, src, tt.wantJSONL)
		}
	}
}

func TestJSONL_LenUnknown(t *testing.T) {
	if _, known := NewJSONL(strings.NewReader("")).Len(); known {
		t.Error("Len() known = true; JSONL stream length is unknown")
	}
}
