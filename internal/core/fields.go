package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IDField is the reserved key carrying a record's identifier in JSON form.
const IDField = "_id"

// Fields is an ordered set of named values. Names keep insertion order;
// a nil value represents null. The zero value is an empty set ready to use.
type Fields struct {
	names  []string
	values map[string]*string
}

// NewFields builds a Fields from name/value pairs. A trailing name without
// a value is ignored.
func NewFields(pairs ...string) Fields {
	var f Fields
	for i := 0; i+1 < len(pairs); i += 2 {
		f.SetString(pairs[i], pairs[i+1])
	}
	return f
}

// Set assigns value to name. New names are appended; existing names keep
// their position.
func (f *Fields) Set(name string, value *string) {
	if f.values == nil {
		f.values = make(map[string]*string)
	}
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

// SetString assigns a non-null value.
func (f *Fields) SetString(name, value string) {
	f.Set(name, &value)
}

// Delete removes name if present.
func (f *Fields) Delete(name string) {
	if _, ok := f.values[name]; !ok {
		return
	}
	delete(f.values, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i:i], f.names[i+1:]...)
			break
		}
	}
}

// Get returns the value for name and whether the name is present.
func (f Fields) Get(name string) (*string, bool) {
	v, ok := f.values[name]
	return v, ok
}

// String returns the value for name, or "" when absent or null.
func (f Fields) String(name string) string {
	if v := f.values[name]; v != nil {
		return *v
	}
	return ""
}

// Has reports whether name is present (null counts as present).
func (f Fields) Has(name string) bool {
	_, ok := f.values[name]
	return ok
}

// Names returns field names in order.
func (f Fields) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of fields.
func (f Fields) Len() int {
	return len(f.names)
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	var out Fields
	for _, n := range f.names {
		v := f.values[n]
		if v == nil {
			out.Set(n, nil)
			continue
		}
		out.SetString(n, *v)
	}
	return out
}

// Merge returns a copy of f with every field of patch applied over it.
// Existing names keep their position; new names are appended.
func (f Fields) Merge(patch Fields) Fields {
	out := f.Clone()
	for _, n := range patch.names {
		v := patch.values[n]
		if v == nil {
			out.Set(n, nil)
			continue
		}
		out.SetString(n, *v)
	}
	return out
}

// Equal reports whether both sets hold the same names in the same order
// with the same values.
func (f Fields) Equal(other Fields) bool {
	if len(f.names) != len(other.names) {
		return false
	}
	for i, n := range f.names {
		if other.names[i] != n {
			return false
		}
		a, b := f.values[n], other.values[n]
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && *a != *b {
			return false
		}
	}
	return true
}

// AnyNonBlank reports whether at least one value is non-null and contains
// something other than whitespace.
func (f Fields) AnyNonBlank() bool {
	for _, n := range f.names {
		if v := f.values[n]; v != nil && strings.TrimSpace(*v) != "" {
			return true
		}
	}
	return false
}

// Map returns the fields as a plain map. Null values become nil.
func (f Fields) Map() map[string]any {
	out := make(map[string]any, len(f.names))
	for _, n := range f.names {
		if v := f.values[n]; v != nil {
			out[n] = *v
		} else {
			out[n] = nil
		}
	}
	return out
}

// MarshalJSON writes the fields as a JSON object in field order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := f.writeMembers(&buf); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f Fields) writeMembers(buf *bytes.Buffer) error {
	for i, n := range f.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')

		v := f.values[n]
		if v == nil {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(*v)
		if err != nil {
			return err
		}
		buf.Write(val)
	}
	return nil
}

// UnmarshalJSON reads a JSON object keeping member order. Strings are kept
// as-is, null stays null, and any other value is stored as its JSON text.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = Fields{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected JSON object, got %v", tok)
	}

	var out Fields
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fields: expected member name, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("fields: member %q: %w", name, err)
		}
		out.Set(name, rawToValue(raw))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = out
	return nil
}

func rawToValue(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return &s
	}
	s = string(trimmed)
	return &s
}

// Record is one row of a dataset: an identifier plus its fields.
// The identifier is assigned by a RecordStore and never changes.
type Record struct {
	ID     string
	Fields Fields
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	return Record{ID: r.ID, Fields: r.Fields.Clone()}
}

// MarshalJSON writes the record's fields followed by "_id".
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := r.Fields.writeMembers(&buf); err != nil {
		return nil, err
	}
	if r.Fields.Len() > 0 {
		buf.WriteByte(',')
	}
	id, err := json.Marshal(r.ID)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"` + IDField + `":`)
	buf.Write(id)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a record object, lifting "_id" out of the fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	var f Fields
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	r.ID = f.String(IDField)
	f.Delete(IDField)
	r.Fields = f
	return nil
}
