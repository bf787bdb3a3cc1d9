package schema

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// DateField names the fixed primary-key field declared by every schema.
const DateField = "date"

// Field describes one declared field of the output schema.
type Field struct {
	Types  []string
	Format string
}

// DateTimeField returns the declaration for the fixed date field.
func DateTimeField() Field {
	return Field{Types: []string{"string"}, Format: "date-time"}
}

// NullableNumber returns the declaration used for every currency field.
func NullableNumber() Field {
	return Field{Types: []string{"null", "number"}, Format: ""}
}

// MarshalJSON renders a scalar type when only one type is declared and a
// type array otherwise, matching the emitted schema document shape.
func (f Field) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	if len(f.Types) == 1 {
		single, err := json.Marshal(f.Types[0])
		if err != nil {
			return nil, err
		}
		buf.Write(single)
	} else {
		many, err := json.Marshal(f.Types)
		if err != nil {
			return nil, err
		}
		buf.Write(many)
	}
	if f.Format != "" {
		buf.WriteString(`,"format":`)
		format, err := json.Marshal(f.Format)
		if err != nil {
			return nil, err
		}
		buf.Write(format)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Schema is the declared shape of emitted records: the fixed date field plus
// one nullable-number field per currency ever observed. Field order is
// insertion order; growth is additive only.
type Schema struct {
	keys   []string
	fields map[string]Field
}

// New returns a schema declaring only the fixed date field.
func New() Schema {
	s := Schema{
		keys:   make([]string, 0, 1),
		fields: make(map[string]Field, 1),
	}
	s.Add(DateField, DateTimeField())
	return s
}

// Has reports whether the named field is declared.
func (s Schema) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Add declares a field; re-adding an existing field is a no-op.
func (s *Schema) Add(name string, field Field) {
	if s.fields == nil {
		s.fields = make(map[string]Field)
	}
	if _, ok := s.fields[name]; ok {
		return
	}
	s.keys = append(s.keys, name)
	s.fields[name] = field
}

// Len returns the number of declared fields.
func (s Schema) Len() int { return len(s.keys) }

// Fields returns the declared field names in insertion order.
func (s Schema) Fields() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	clone := Schema{
		keys:   make([]string, len(s.keys)),
		fields: make(map[string]Field, len(s.fields)),
	}
	copy(clone.keys, s.keys)
	for k, v := range s.fields {
		field := v
		if v.Types != nil {
			field.Types = make([]string, len(v.Types))
			copy(field.Types, v.Types)
		}
		clone.fields[k] = field
	}
	return clone
}

// Equal reports whether both schemas declare the same field set. Growth is
// additive, so a field-count plus containment check suffices.
func (s Schema) Equal(other Schema) bool {
	if len(s.keys) != len(other.keys) {
		return false
	}
	for name := range s.fields {
		if !other.Has(name) {
			return false
		}
	}
	return true
}

// MarshalJSON renders the schema document with properties in insertion order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"type":"object","properties":{`)
	for i, name := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		field, err := s.fields[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(field)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}
