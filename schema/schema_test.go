package schema

import (
	"errors"
	"strings"
	"testing"
)

func TestBuilder_Basic(t *testing.T) {
	s, err := NewBuilder().
		Field("id", Integer).Required().Done().
		Field("age", Integer).Min(18).Max(120).Done().
		Field("email", String).Pattern(`[^@]+@[^@]+`).Done().
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("Len() = %d; want 3", s.Len())
	}

	fields := s.Fields()
	want := []string{"id", "age", "email"}
	for i, name := range want {
		if fields[i].Name != name {
			t.Errorf("Fields()[%d].Name = %q; want %q", i, fields[i].Name, name)
		}
	}

	fc, ok := s.Field("age")
	if !ok {
		t.Fatal("Field(age) not found")
	}
	if fc.Min == nil || fc.Min.String() != "18" {
		t.Errorf("Field(age).Min = %v; want 18", fc.Min)
	}
	if fc.Max == nil || fc.Max.String() != "120" {
		t.Errorf("Field(age).Max = %v; want 120", fc.Max)
	}

	if _, ok := s.Field("nope"); ok {
		t.Error("Field(nope) = true; want false")
	}
}

func TestBuilder_PatternCompiledAtBuild(t *testing.T) {
	s, err := NewBuilder().
		Field("code", String).Pattern(`[A-Z]{3}`).Done().
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	fc, _ := s.Field("code")
	if fc.Pattern == nil {
		t.Fatal("pattern not compiled at build time")
	}
	// The pattern is anchored: it must match the full value.
	if fc.Pattern.MatchString("ABCD") {
		t.Error("pattern matched a partial value; want full-string anchoring")
	}
	if !fc.Pattern.MatchString("ABC") {
		t.Error("pattern did not match a conforming value")
	}
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name   string
		build  func() (*Schema, error)
		substr string
	}{
		{
			name: "duplicate field",
			build: func() (*Schema, error) {
				return NewBuilder().
					Field("id", Integer).Done().
					Field("id", String).Done().
					Build()
			},
			substr: "duplicate field",
		},
		{
			name: "bad pattern",
			build: func() (*Schema, error) {
				return NewBuilder().Field("x", String).Pattern(`[`).Done().Build()
			},
			substr: "invalid pattern",
		},
		{
			name: "min greater than max",
			build: func() (*Schema, error) {
				return NewBuilder().Field("x", Integer).Min(10).Max(5).Done().Build()
			},
			substr: "greater than max",
		},
		{
			name: "min length greater than max length",
			build: func() (*Schema, error) {
				return NewBuilder().Field("x", String).MinLength(10).MaxLength(5).Done().Build()
			},
			substr: "greater than max length",
		},
		{
			name: "range on string",
			build: func() (*Schema, error) {
				return NewBuilder().Field("x", String).Min(1).Done().Build()
			},
			substr: "not applicable",
		},
		{
			name: "length on integer",
			build: func() (*Schema, error) {
				return NewBuilder().Field("x", Integer).MaxLength(5).Done().Build()
			},
			substr: "not applicable",
		},
		{
			name: "empty name",
			build: func() (*Schema, error) {
				return NewBuilder().Field("", String).Done().Build()
			},
			substr: "empty field name",
		},
		{
			name: "reserved name",
			build: func() (*Schema, error) {
				return NewBuilder().Field("*custom*", String).Done().Build()
			},
			substr: "reserved",
		},
		{
			name: "negative min length",
			build: func() (*Schema, error) {
				return NewBuilder().Field("x", String).MinLength(-1).Done().Build()
			},
			substr: "negative min length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.build()
			if err == nil {
				t.Fatal("Build() succeeded; want error")
			}
			if s != nil {
				t.Error("Build() returned a partial schema alongside an error")
			}
			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("error type = %T; want *BuildError", err)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.substr)
			}
		})
	}
}

func TestKindFromString(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"string", String, true},
		{"str", String, true},
		{"integer", Integer, true},
		{"int", Integer, true},
		{"float", Float, true},
		{"number", Float, true},
		{"boolean", Boolean, true},
		{"bool", Boolean, true},
		{"Integer", Integer, true},
		{"decimal", String, false},
	}
	for _, tt := range tests {
		got, ok := KindFromString(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("KindFromString(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFromJSON(t *testing.T) {
	desc := `{"fields": [
		{"name": "id", "type": "integer", "required": true},
		{"name": "age", "type": "integer", "min": 18, "max": 120},
		{"name": "email", "type": "string", "minLength": 3, "maxLength": 254, "pattern": "[^@]+@[^@]+"},
		{"name": "status", "type": "string", "oneOf": ["active", "closed"]}
	]}`

	s, err := FromJSON([]byte(desc))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	if s.Len() != 4 {
		t.Fatalf("Len() = %d; want 4", s.Len())
	}

	// Declaration order follows the description.
	if s.Fields()[0].Name != "id" || s.Fields()[3].Name != "status" {
		t.Errorf("field order = %q ... %q; want id ... status", s.Fields()[0].Name, s.Fields()[3].Name)
	}

	status, _ := s.Field("status")
	if len(status.OneOf) != 2 {
		t.Errorf("status.OneOf = %v; want two values", status.OneOf)
	}
}

func TestFromJSON_Errors(t *testing.T) {
	if _, err := FromJSON([]byte(`not json`)); err == nil {
		t.Error("FromJSON should reject malformed JSON")
	}
	if _, err := FromJSON([]byte(`{"fields": []}`)); err == nil {
		t.Error("FromJSON should reject an empty field list")
	}
	if _, err := FromJSON([]byte(`{"fields": [{"name": "x", "type": "blob"}]}`)); err == nil {
		t.Error("FromJSON should reject unknown types")
	}
}

func TestFromReader(t *testing.T) {
	s, err := FromReader(strings.NewReader(`{"fields": [{"name": "id", "type": "int"}]}`))
	if err != nil {
		t.Fatalf("FromReader() error = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d; want 1", s.Len())
	}
}
