package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FieldType is a declared type tag. Descriptive only, never enforced.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeObject  FieldType = "object"
	FieldTypeArray   FieldType = "array"
)

// Field is one declared input or output. Schema holds the raw declaration when it
// is not a plain type tag, so it can be echoed back unchanged.
type Field struct {
	Name   string
	Type   FieldType
	Schema json.RawMessage
}

// FieldSet is an ordered field name -> type mapping that keeps declaration order
// through a JSON round trip. A JSON array of names is also accepted; such a set
// has no types and marshals back to an array.
type FieldSet []Field

// Names returns the field names in declaration order.
func (f FieldSet) Names() []string {
	if len(f) == 0 {
		return nil
	}

	names := make([]string, 0, len(f))
	for _, field := range f {
		names = append(names, field.Name)
	}

	return names
}

func (f FieldSet) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}

	if f.namesOnly() {
		return json.Marshal(f.Names())
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, field := range f {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(field.Name)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')

		if len(field.Schema) > 0 {
			buf.Write(field.Schema)

			continue
		}

		value, err := json.Marshal(string(field.Type))
		if err != nil {
			return nil, err
		}

		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (f *FieldSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil

		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	delim, ok := tok.(json.Delim)
	if ok && delim == '[' {
		var names []string

		err := json.Unmarshal(data, &names)
		if err != nil {
			return fmt.Errorf("field set array must hold names: %w", err)
		}

		fields := make(FieldSet, 0, len(names))
		for _, name := range names {
			fields = append(fields, Field{Name: name})
		}

		*f = fields

		return nil
	}

	if !ok || delim != '{' {
		return errors.New("field set must be a JSON object or an array of names")
	}

	fields := make(FieldSet, 0)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected field set key %v", tok)
		}

		var raw json.RawMessage

		err = dec.Decode(&raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}

		field := Field{Name: name}

		var tag string
		if json.Unmarshal(raw, &tag) == nil {
			field.Type = FieldType(tag)
		} else {
			field.Schema = raw
		}

		fields = append(fields, field)
	}

	*f = fields

	return nil
}

func (f FieldSet) namesOnly() bool {
	if len(f) == 0 {
		return false
	}

	for _, field := range f {
		if field.Type != "" || len(field.Schema) > 0 {
			return false
		}
	}

	return true
}

// RawValue is an opaque JSON value carried through resolution untouched.
type RawValue = json.RawMessage
