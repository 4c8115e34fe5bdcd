// Package schema defines per-field constraints for tabular records and the
// builder that compiles them into an immutable, shareable Schema.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind is the expected type of a field's raw value.
type Kind uint8

// Supported field kinds.
const (
	String Kind = iota
	Integer
	Float
	Boolean
)

// String returns the kind name as used in schema descriptions.
func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// KindFromString parses a kind name. It accepts the aliases used by common
// schema descriptions ("int", "number", "bool", "str").
func KindFromString(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "string", "str":
		return String, true
	case "integer", "int":
		return Integer, true
	case "float", "number":
		return Float, true
	case "boolean", "bool":
		return Boolean, true
	default:
		return String, false
	}
}

// Numeric reports whether values of this kind carry range constraints.
func (k Kind) Numeric() bool {
	return k == Integer || k == Float
}

// FieldConstraint is one entry of a schema. Immutable once built.
// Min/Max apply to numeric kinds only; MinLength/MaxLength/Pattern/OneOf
// apply to String only. The builder rejects inapplicable constraints.
type FieldConstraint struct {
	Name     string
	Kind     Kind
	Required bool

	// Numeric bounds, inclusive. Decimal so that range checks on
	// financial values are exact rather than float-rounded.
	Min *decimal.Decimal
	Max *decimal.Decimal

	// String length bounds, inclusive.
	MinLength *int
	MaxLength *int

	// Pattern must match the full value. Compiled once at build time.
	Pattern    *regexp.Regexp
	patternSrc string

	// OneOf restricts a string value to a fixed set.
	OneOf []string
}

// PatternString returns the original pattern source, or "" if none.
func (fc *FieldConstraint) PatternString() string {
	return fc.patternSrc
}

// Schema is an ordered, name-unique collection of field constraints.
// Built once, then shared read-only across all workers for the lifetime
// of a validation run. Error ordering within a row follows declaration
// order, so Fields() iteration order is part of the contract.
type Schema struct {
	fields []FieldConstraint
	index  map[string]int
}

// Fields returns the constraints in declaration order.
// The returned slice must not be modified.
func (s *Schema) Fields() []FieldConstraint {
	return s.fields
}

// Field returns the constraint for the named field.
func (s *Schema) Field(name string) (FieldConstraint, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldConstraint{}, false
	}
	return s.fields[i], true
}

// Len returns the number of fields in the schema.
func (s *Schema) Len() int {
	return len(s.fields)
}

// BuildError reports why a schema description could not be compiled.
// No partial schema is ever returned alongside a BuildError.
type BuildError struct {
	Field  string // offending field name, "" for schema-level problems
	Reason string
	Err    error // underlying error (e.g. regexp compile failure), may be nil
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema build: %s", e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("schema build: field %q: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("schema build: field %q: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// anchor wraps a pattern so it must match the entire value.
func anchor(expr string) string {
	return `\A(?:` + expr + `)\z`
}

// validate checks a single constraint for internal consistency.
func (fc *FieldConstraint) validate() *BuildError {
	if fc.Name == "" {
		return &BuildError{Reason: "empty field name"}
	}
	if strings.Contains(fc.Name, "*") {
		return &BuildError{Field: fc.Name, Reason: "field names must not contain '*' (reserved)"}
	}

	if !fc.Kind.Numeric() && (fc.Min != nil || fc.Max != nil) {
		return &BuildError{Field: fc.Name, Reason: fmt.Sprintf("min/max not applicable to kind %s", fc.Kind)}
	}
	if fc.Kind != String && (fc.MinLength != nil || fc.MaxLength != nil || fc.patternSrc != "" || len(fc.OneOf) > 0) {
		return &BuildError{Field: fc.Name, Reason: fmt.Sprintf("length/pattern/one-of not applicable to kind %s", fc.Kind)}
	}

	if fc.Min != nil && fc.Max != nil && fc.Min.GreaterThan(*fc.Max) {
		return &BuildError{Field: fc.Name, Reason: fmt.Sprintf("min %s greater than max %s", fc.Min, fc.Max)}
	}
	if fc.MinLength != nil && *fc.MinLength < 0 {
		return &BuildError{Field: fc.Name, Reason: "negative min length"}
	}
	if fc.MinLength != nil && fc.MaxLength != nil && *fc.MinLength > *fc.MaxLength {
		return &BuildError{Field: fc.Name, Reason: fmt.Sprintf("min length %d greater than max length %d", *fc.MinLength, *fc.MaxLength)}
	}
	return nil
}

// compile finalizes the constraint, compiling the pattern if present.
func (fc *FieldConstraint) compile() *BuildError {
	if err := fc.validate(); err != nil {
		return err
	}
	if fc.patternSrc != "" {
		re, err := regexp.Compile(anchor(fc.patternSrc))
		if err != nil {
			return &BuildError{Field: fc.Name, Reason: "invalid pattern", Err: err}
		}
		fc.Pattern = re
	}
	return nil
}

// build assembles constraints into a Schema, enforcing name uniqueness.
func build(constraints []FieldConstraint) (*Schema, error) {
	s := &Schema{
		fields: make([]FieldConstraint, 0, len(constraints)),
		index:  make(map[string]int, len(constraints)),
	}
	for _, fc := range constraints {
		if err := fc.compile(); err != nil {
			return nil, err
		}
		if _, dup := s.index[fc.Name]; dup {
			return nil, &BuildError{Field: fc.Name, Reason: "duplicate field name"}
		}
		s.index[fc.Name] = len(s.fields)
		s.fields = append(s.fields, fc)
	}
	return s, nil
}
