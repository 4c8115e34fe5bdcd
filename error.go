package rowvalidator

import (
	"errors"
	"fmt"
)

// Reserved field names used in ValidationError.Field. They cannot collide
// with real column names because schema building rejects names containing '*'.
const (
	// FieldRow marks a structural row error: the row could not be parsed
	// into a record at all (for example a column-count mismatch).
	FieldRow = "*row*"

	// FieldCustom marks an error produced by a custom Rule.
	FieldCustom = "*custom*"
)

// Sentinel errors returned by validation runs.
var (
	// ErrEmptyResult is returned by Result.SuccessRate when no rows were seen.
	ErrEmptyResult = errors.New("success rate undefined: result contains no rows")

	// ErrCancelled is returned when a run is cancelled before completion.
	// In-flight chunks finish first; a cancelled run never yields a
	// partial Result.
	ErrCancelled = errors.New("validation run cancelled")

	// ErrSourceRead is wrapped around fatal row-source failures. Row-level
	// parse problems are reported as *row* errors instead and never abort
	// a run.
	ErrSourceRead = errors.New("row source read failed")
)

// ValidationError describes one violation found in one row.
// RowIndex is the 0-based absolute position in the original source,
// stable across chunking and streaming. Immutable after creation.
type ValidationError struct {
	RowIndex uint64 `json:"rowIndex"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d, field %q: %s", e.RowIndex, e.Field, e.Message)
}

// IsStructural reports whether the error is a row-level structural error
// rather than a field constraint violation.
func (e ValidationError) IsStructural() bool {
	return e.Field == FieldRow
}
