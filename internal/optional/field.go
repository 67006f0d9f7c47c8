// Package optional models a field of a partial update that can be absent, explicitly
// null, or carry a value.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state value. The zero value is absent.
//
// When used as a non-pointer struct field, encoding/json calls UnmarshalJSON for every key
// present in the document, including a literal null, and never for missing keys.
type Field[T any] struct {
	set   bool
	null  bool
	value T
}

// Of returns a present, non-null field.
func Of[T any](v T) Field[T] {
	return Field[T]{set: true, value: v}
}

// Null returns a present field carrying an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{set: true, null: true}
}

// IsSet reports whether the field was supplied at all.
func (f Field[T]) IsSet() bool { return f.set }

// IsZero reports whether the field is absent, so `omitzero` drops it when encoding.
func (f Field[T]) IsZero() bool { return !f.set }

// IsNull reports whether the field was supplied as an explicit null.
func (f Field[T]) IsNull() bool { return f.set && f.null }

// Value returns the carried value and whether there is one.
func (f Field[T]) Value() (T, bool) {
	if !f.set || f.null {
		var zero T
		return zero, false
	}

	return f.value, true
}

// Ptr returns nil for absent or null fields, otherwise a pointer to a copy of the value.
func (f Field[T]) Ptr() *T {
	v, ok := f.Value()
	if !ok {
		return nil
	}

	return &v
}

// Map converts the carried value while keeping the absent and null states.
func Map[T, U any](f Field[T], fn func(T) U) Field[U] {
	switch {
	case !f.set:
		return Field[U]{}
	case f.null:
		return Null[U]()
	default:
		return Of(fn(f.value))
	}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.set = true

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true

		var zero T
		f.value = zero

		return nil
	}

	f.null = false

	return json.Unmarshal(data, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set || f.null {
		return []byte("null"), nil
	}

	return json.Marshal(f.value)
}
