// Package filter implements typed conditions over dataset records: the field model, the
// operator registry, AND-combined condition sets and their evaluation.
package filter

import "strings"

// FieldType is the value type declared for a field in a dataset's catalog
type FieldType string

const (
	// FieldTypeText is a free-form string field
	FieldTypeText FieldType = "text"
	// FieldTypeNumber is a numeric field
	FieldTypeNumber FieldType = "number"
	// FieldTypeDate is a date or timestamp field
	FieldTypeDate FieldType = "date"
	// FieldTypeBoolean is a true/false field
	FieldTypeBoolean FieldType = "boolean"
)

// FieldTypes returns every supported field type in display order
func FieldTypes() []FieldType {
	return []FieldType{FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean}
}

// IsValid reports whether t is one of the supported field types
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean:
		return true
	}
	return false
}

// Field describes one column of a dataset type
type Field struct {
	Name  string    `json:"name" yaml:"name"`
	Label string    `json:"label" yaml:"label"`
	Type  FieldType `json:"type" yaml:"type"`
}

// Fields is the ordered field list of a dataset type
type Fields []Field

// Lookup returns the field with the given name
func (f Fields) Lookup(name string) (Field, bool) {
	for _, field := range f {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Names returns the field names in catalog order
func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, field := range f {
		names[i] = field.Name
	}
	return names
}

// Record is a single field-keyed row of a dataset
type Record map[string]any

// Clone returns a shallow copy of the record. Nested maps are shared.
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Lookup resolves a field value. Names containing a dot fall back to a nested
// path lookup when no top-level key matches.
func (r Record) Lookup(name string) (any, bool) {
	if v, ok := r[name]; ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}
	return lookupPath(r, name)
}
