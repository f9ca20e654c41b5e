package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// ValueKind tags the variant held by a FieldValue.
type ValueKind string

const (
	KindScalar ValueKind = "SCALAR"
	KindBool   ValueKind = "BOOL"
	KindList   ValueKind = "LIST"
)

func (k ValueKind) String() string { return string(k) }

func (k ValueKind) IsValid() bool {
	switch k {
	case KindScalar, KindBool, KindList:
		return true
	}
	return false
}

// FieldValue is the value of one infobox field: exactly one of a scalar
// string, a boolean or a list of strings. The zero value is an empty Scalar.
type FieldValue struct {
	kind  ValueKind
	str   string
	flag  bool
	items []string
}

// Scalar returns a string-valued FieldValue.
func Scalar(s string) FieldValue { return FieldValue{kind: KindScalar, str: s} }

// Bool returns a boolean FieldValue.
func Bool(b bool) FieldValue { return FieldValue{kind: KindBool, flag: b} }

// List returns a list-valued FieldValue. The items are copied.
func List(items ...string) FieldValue {
	return FieldValue{kind: KindList, items: slices.Clone(items)}
}

// Kind reports the variant held by v.
func (v FieldValue) Kind() ValueKind {
	if v.kind == "" {
		return KindScalar
	}
	return v.kind
}

// Str returns the scalar string and whether v is a Scalar.
func (v FieldValue) Str() (string, bool) {
	return v.str, v.Kind() == KindScalar
}

// Bool returns the boolean and whether v is a Bool.
func (v FieldValue) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

// Items returns a copy of the list items and whether v is a List.
func (v FieldValue) Items() ([]string, bool) {
	return slices.Clone(v.items), v.kind == KindList
}

// Len returns the number of list items (0 for non-lists).
func (v FieldValue) Len() int { return len(v.items) }

// Equal reports whether v and o hold the same variant and value.
func (v FieldValue) Equal(o FieldValue) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindBool:
		return v.flag == o.flag
	case KindList:
		return slices.Equal(v.items, o.items)
	default:
		return v.str == o.str
	}
}

func (v FieldValue) String() string {
	switch v.Kind() {
	case KindBool:
		return fmt.Sprintf("Bool(%t)", v.flag)
	case KindList:
		return fmt.Sprintf("List(%q)", v.items)
	default:
		return fmt.Sprintf("Scalar(%q)", v.str)
	}
}

// MarshalJSON encodes a Scalar as a string, a Bool as a boolean and a List
// as an array of strings.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindBool:
		return json.Marshal(v.flag)
	case KindList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON accepts exactly the three shapes produced by MarshalJSON.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("field value: empty input: %w", ErrValidation)
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("field value: %w", err)
		}
		*v = Scalar(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("field value: %w", err)
		}
		*v = Bool(b)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("field value: %w", err)
		}
		*v = List(items...)
	default:
		return fmt.Errorf("field value: unsupported json %s: %w", data, ErrValidation)
	}
	return nil
}

// Fields maps a normalized field name to its value.
type Fields map[string]FieldValue
