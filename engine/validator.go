// Package engine provides the record validator and the chunked parallel
// executor that together implement high-throughput schema validation.
package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	rv "github.com/rowpipe/validator"
	"github.com/rowpipe/validator/schema"
)

// Error message prefixes. Messages carry a detail suffix after ": ";
// callers matching on error categories should use strings.HasPrefix.
const (
	MsgMissingRequired = "missing required field"
	MsgInvalidType     = "invalid type"
	MsgOutOfRange      = "out of range"
	MsgLengthViolation = "length constraint violated"
	MsgPatternMismatch = "pattern mismatch"
	MsgValueNotAllowed = "value not allowed"
	MsgMalformedRow    = "malformed row"
)

// Validator validates records against a compiled schema. The schema and
// options are read-only after construction, so a Validator is safe for
// concurrent use by the chunk workers.
type Validator struct {
	schema  *schema.Schema
	opts    *rv.Options
	logger  *slog.Logger
	metrics *rv.Metrics
}

// New creates a Validator for the given schema.
func New(s *schema.Schema, opts ...rv.Option) *Validator {
	options := rv.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Validator{
		schema:  s,
		opts:    options,
		logger:  logger,
		metrics: options.Metrics,
	}
}

// Schema returns the compiled schema this validator runs against.
func (v *Validator) Schema() *schema.Schema {
	return v.schema
}

// Options returns the effective run options.
func (v *Validator) Options() *rv.Options {
	return v.opts
}

// ValidateRecord evaluates one record against the schema, returning all
// violations in schema declaration order. RowIndex is left zero; the
// caller fills it in with the absolute row position.
//
// Validation never stops at the first failing field: every applicable
// error for the record is collected. The custom rule, when configured,
// is invoked exactly once per record, after the field checks, and its
// failure is appended under the reserved field name "*custom*".
func (v *Validator) ValidateRecord(record rv.Record) []rv.ValidationError {
	return v.validateRecordInto(record, nil)
}

// validateRecordInto appends the record's violations to dst and returns it.
// Reusing dst across rows keeps the hot path allocation-free.
func (v *Validator) validateRecordInto(record rv.Record, dst []rv.ValidationError) []rv.ValidationError {
	for i := range v.schema.Fields() {
		fc := &v.schema.Fields()[i]

		raw, present := record.Lookup(fc.Name)
		if !present {
			// An explicit null marker counts as absence, required or not.
			if fc.Required {
				dst = append(dst, rv.ValidationError{Field: fc.Name, Message: MsgMissingRequired})
			}
			continue
		}

		dst = v.checkField(fc, raw, dst)
	}

	if v.opts.Rule != nil {
		if ok, msg := v.opts.Rule.Check(record); !ok {
			if msg == "" {
				msg = "custom rule failed"
			}
			dst = append(dst, rv.ValidationError{Field: rv.FieldCustom, Message: msg})
		}
	}

	return dst
}

// checkField applies type, range, length, pattern and one-of checks to a
// present value. A type failure short-circuits the remaining checks for
// the field to avoid redundant errors.
func (v *Validator) checkField(fc *schema.FieldConstraint, raw string, dst []rv.ValidationError) []rv.ValidationError {
	switch fc.Kind {
	case schema.Integer:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return append(dst, rv.ValidationError{
				Field:   fc.Name,
				Message: fmt.Sprintf("%s: %q is not a valid integer", MsgInvalidType, raw),
			})
		}
		return v.checkRange(fc, decimal.NewFromInt(n), dst)

	case schema.Float:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return append(dst, rv.ValidationError{
				Field:   fc.Name,
				Message: fmt.Sprintf("%s: %q is not a valid float", MsgInvalidType, raw),
			})
		}
		return v.checkRange(fc, d, dst)

	case schema.Boolean:
		switch strings.ToLower(raw) {
		case "true", "false", "1", "0":
			return dst
		default:
			return append(dst, rv.ValidationError{
				Field:   fc.Name,
				Message: fmt.Sprintf("%s: %q is not a valid boolean", MsgInvalidType, raw),
			})
		}

	default: // schema.String
		return v.checkString(fc, raw, dst)
	}
}

// checkRange enforces the inclusive [min, max] bound on a numeric value.
func (v *Validator) checkRange(fc *schema.FieldConstraint, d decimal.Decimal, dst []rv.ValidationError) []rv.ValidationError {
	if fc.Min != nil && d.LessThan(*fc.Min) {
		return append(dst, rv.ValidationError{
			Field:   fc.Name,
			Message: fmt.Sprintf("%s: %s below minimum %s", MsgOutOfRange, d, fc.Min),
		})
	}
	if fc.Max != nil && d.GreaterThan(*fc.Max) {
		return append(dst, rv.ValidationError{
			Field:   fc.Name,
			Message: fmt.Sprintf("%s: %s above maximum %s", MsgOutOfRange, d, fc.Max),
		})
	}
	return dst
}

// checkString enforces length, pattern and one-of constraints.
// Length is counted in bytes, matching the raw wire value.
func (v *Validator) checkString(fc *schema.FieldConstraint, raw string, dst []rv.ValidationError) []rv.ValidationError {
	n := len(raw)
	if fc.MinLength != nil && n < *fc.MinLength {
		dst = append(dst, rv.ValidationError{
			Field:   fc.Name,
			Message: fmt.Sprintf("%s: length %d below minimum %d", MsgLengthViolation, n, *fc.MinLength),
		})
	}
	if fc.MaxLength != nil && n > *fc.MaxLength {
		dst = append(dst, rv.ValidationError{
			Field:   fc.Name,
			Message: fmt.Sprintf("%s: length %d above maximum %d", MsgLengthViolation, n, *fc.MaxLength),
		})
	}
	if fc.Pattern != nil && !fc.Pattern.MatchString(raw) {
		dst = append(dst, rv.ValidationError{
			Field:   fc.Name,
			Message: fmt.Sprintf("%s: %q does not match %s", MsgPatternMismatch, raw, fc.PatternString()),
		})
	}
	if len(fc.OneOf) > 0 {
		allowed := false
		for _, want := range fc.OneOf {
			if raw == want {
				allowed = true
				break
			}
		}
		if !allowed {
			dst = append(dst, rv.ValidationError{
				Field:   fc.Name,
				Message: fmt.Sprintf("%s: %q is not one of the allowed values", MsgValueNotAllowed, raw),
			})
		}
	}
	return dst
}
