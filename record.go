package rowvalidator

// Record is one raw row keyed by column name. Values are kept as strings;
// type interpretation happens during validation against the schema.
//
// An empty string value is the null marker: it is treated as absence of the
// field, for both optional and required fields. Sources that distinguish
// explicit nulls (JSON null, empty CSV cell) normalize them to "".
type Record map[string]string

// Lookup returns the value for the field and whether it is present.
// A field whose value is the null marker counts as absent.
func (r Record) Lookup(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Rule is the single extension point for checks the schema cannot express.
// Check is invoked at most once per record and must be safe for concurrent
// use across distinct records; the engine never calls it concurrently for
// the same record. A failing check contributes one error under FieldCustom.
type Rule interface {
	Check(record Record) (ok bool, message string)
}

// RuleFunc adapts a plain function to the Rule interface.
type RuleFunc func(record Record) (bool, string)

// Check implements Rule.
func (f RuleFunc) Check(record Record) (bool, string) {
	return f(record)
}
