package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValueKind_IsValid(t *testing.T) {
	t.Parallel()

	for _, k := range []ValueKind{KindScalar, KindBool, KindList} {
		if !k.IsValid() {
			t.Errorf("%s.IsValid() = false, want true", k)
		}
	}
	if ValueKind("MAP").IsValid() {
		t.Error(`ValueKind("MAP").IsValid() = true, want false`)
	}
}

func TestFieldValue_Variants(t *testing.T) {
	t.Parallel()

	s := Scalar("Amy Barlow")
	if got, ok := s.Str(); !ok || got != "Amy Barlow" {
		t.Errorf("Scalar.Str() = %q, %v", got, ok)
	}
	if _, ok := s.Bool(); ok {
		t.Error("Scalar.Bool() reported ok")
	}

	b := Bool(true)
	if got, ok := b.Bool(); !ok || !got {
		t.Errorf("Bool.Bool() = %v, %v", got, ok)
	}
	if _, ok := b.Str(); ok {
		t.Error("Bool.Str() reported ok")
	}

	l := List("Tracy Barlow", "Steve McDonald")
	items, ok := l.Items()
	if !ok || len(items) != 2 || l.Len() != 2 {
		t.Fatalf("List.Items() = %v, %v", items, ok)
	}
	items[0] = "mutated"
	if again, _ := l.Items(); again[0] != "Tracy Barlow" {
		t.Error("Items must return a copy")
	}

	var zero FieldValue
	if zero.Kind() != KindScalar {
		t.Errorf("zero value kind = %s, want SCALAR", zero.Kind())
	}
}

func TestFieldValue_Equal(t *testing.T) {
	t.Parallel()

	if !List("a", "b").Equal(List("a", "b")) {
		t.Error("equal lists reported unequal")
	}
	if List("a").Equal(Scalar("a")) {
		t.Error("list and scalar reported equal")
	}
	if Bool(true).Equal(Bool(false)) {
		t.Error("true and false reported equal")
	}
	if !Scalar("").Equal(FieldValue{}) {
		t.Error("empty scalar should equal the zero value")
	}
}

func TestFieldValue_JSON(t *testing.T) {
	t.Parallel()

	fields := Fields{
		"name":   Scalar("Amy Barlow"),
		"alive":  Bool(true),
		"family": List("Tracy Barlow", "Steve McDonald"),
	}

	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"alive":true,"family":["Tracy Barlow","Steve McDonald"],"name":"Amy Barlow"}`
	if string(data) != want {
		t.Fatalf("marshal = %s, want %s", data, want)
	}

	var decoded Fields
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for k, v := range fields {
		if !decoded[k].Equal(v) {
			t.Errorf("decoded[%q] = %s, want %s", k, decoded[k], v)
		}
	}
}

func TestFieldValue_UnmarshalRejectsOtherShapes(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`42`, `{"a":"b"}`, `null`, `[1,2]`} {
		var v FieldValue
		err := json.Unmarshal([]byte(in), &v)
		if err == nil {
			t.Errorf("Unmarshal(%s) succeeded, want error", in)
			continue
		}
		if in != `[1,2]` && !errors.Is(err, ErrValidation) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrValidation", in, err)
		}
	}
}
