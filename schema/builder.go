package schema

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// Builder assembles a Schema field by field. Fields are recorded in the
// order they are declared; that order drives error ordering within a row.
//
//	s, err := schema.NewBuilder().
//	    Field("id", schema.Integer).Required().Done().
//	    Field("age", schema.Integer).Min(18).Max(120).Done().
//	    Field("email", schema.String).Pattern(`[^@]+@[^@]+`).Done().
//	    Build()
type Builder struct {
	constraints []FieldConstraint
}

// NewBuilder creates an empty schema builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Field starts a new field declaration.
func (b *Builder) Field(name string, kind Kind) *FieldBuilder {
	return &FieldBuilder{
		parent: b,
		fc:     FieldConstraint{Name: name, Kind: kind},
	}
}

// Add appends a pre-assembled constraint.
func (b *Builder) Add(fc FieldConstraint) *Builder {
	b.constraints = append(b.constraints, fc)
	return b
}

// Build compiles the declared fields into an immutable Schema.
// It fails with *BuildError on duplicate names, uncompilable patterns,
// inverted bounds, or constraints inapplicable to the field's kind.
func (b *Builder) Build() (*Schema, error) {
	return build(b.constraints)
}

// FieldBuilder configures one field. Call Done to return to the Builder.
type FieldBuilder struct {
	parent *Builder
	fc     FieldConstraint
}

// Required marks the field as mandatory. A missing field, or a field whose
// value is the null marker, fails validation.
func (fb *FieldBuilder) Required() *FieldBuilder {
	fb.fc.Required = true
	return fb
}

// Min sets the inclusive lower bound for numeric fields.
func (fb *FieldBuilder) Min(v float64) *FieldBuilder {
	d := decimal.NewFromFloat(v)
	fb.fc.Min = &d
	return fb
}

// Max sets the inclusive upper bound for numeric fields.
func (fb *FieldBuilder) Max(v float64) *FieldBuilder {
	d := decimal.NewFromFloat(v)
	fb.fc.Max = &d
	return fb
}

// MinDecimal sets an exact inclusive lower bound.
func (fb *FieldBuilder) MinDecimal(d decimal.Decimal) *FieldBuilder {
	fb.fc.Min = &d
	return fb
}

// MaxDecimal sets an exact inclusive upper bound.
func (fb *FieldBuilder) MaxDecimal(d decimal.Decimal) *FieldBuilder {
	fb.fc.Max = &d
	return fb
}

// MinLength sets the inclusive minimum string length.
func (fb *FieldBuilder) MinLength(n int) *FieldBuilder {
	fb.fc.MinLength = &n
	return fb
}

// MaxLength sets the inclusive maximum string length.
func (fb *FieldBuilder) MaxLength(n int) *FieldBuilder {
	fb.fc.MaxLength = &n
	return fb
}

// Pattern sets a regular expression the full value must match.
// Compilation happens in Build, never at validation time.
func (fb *FieldBuilder) Pattern(expr string) *FieldBuilder {
	fb.fc.patternSrc = expr
	return fb
}

// OneOf restricts a string field to a fixed set of values.
func (fb *FieldBuilder) OneOf(values ...string) *FieldBuilder {
	fb.fc.OneOf = values
	return fb
}

// Done finishes the field and returns to the Builder.
func (fb *FieldBuilder) Done() *Builder {
	fb.parent.constraints = append(fb.parent.constraints, fb.fc)
	return fb.parent
}

// fieldDesc is the JSON wire form of one field constraint.
type fieldDesc struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Required  bool     `json:"required,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	OneOf     []string `json:"oneOf,omitempty"`
}

// schemaDesc is the JSON wire form of a schema description.
type schemaDesc struct {
	Fields []fieldDesc `json:"fields"`
}

// FromJSON builds a Schema from a declarative JSON description:
//
//	{"fields": [
//	  {"name": "id", "type": "integer", "required": true},
//	  {"name": "age", "type": "integer", "min": 18, "max": 120}
//	]}
//
// Field order in the description is the schema declaration order.
func FromJSON(data []byte) (*Schema, error) {
	var desc schemaDesc
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, &BuildError{Reason: "invalid schema description", Err: err}
	}
	if len(desc.Fields) == 0 {
		return nil, &BuildError{Reason: "schema description declares no fields"}
	}

	b := NewBuilder()
	for _, fd := range desc.Fields {
		kind, ok := KindFromString(fd.Type)
		if !ok {
			return nil, &BuildError{Field: fd.Name, Reason: fmt.Sprintf("unknown type %q", fd.Type)}
		}
		fb := b.Field(fd.Name, kind)
		if fd.Required {
			fb.Required()
		}
		if fd.Min != nil {
			fb.Min(*fd.Min)
		}
		if fd.Max != nil {
			fb.Max(*fd.Max)
		}
		if fd.MinLength != nil {
			fb.MinLength(*fd.MinLength)
		}
		if fd.MaxLength != nil {
			fb.MaxLength(*fd.MaxLength)
		}
		if fd.Pattern != "" {
			fb.Pattern(fd.Pattern)
		}
		if len(fd.OneOf) > 0 {
			fb.OneOf(fd.OneOf...)
		}
		fb.Done()
	}
	return b.Build()
}

// FromReader builds a Schema from a JSON description read from r.
func FromReader(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &BuildError{Reason: "reading schema description", Err: err}
	}
	return FromJSON(data)
}
