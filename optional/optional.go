// Package optional implements the "present or absent, not just zero" JSON
// field that config structs in this module need for things like threshold
// overrides and tie-break seeds, where "unset" and "set to zero" are
// distinct outcomes. Value[T] remembers whether the field appeared in the
// JSON document at all, independent of its zero value.
package optional

import "encoding/json"

// Value is an optional configuration field of type T.
type Value[T any] struct {
	value T
	set   bool
}

// Of builds an already-set Value, for tests and programmatic config.
func Of[T any](v T) Value[T] {
	return Value[T]{value: v, set: true}
}

// Value returns the field's value and whether it was set. The zero value of
// T is returned unset.
func (v Value[T]) Value() (T, bool) {
	return v.value, v.set
}

// Or returns the field's value if set, otherwise fallback.
func (v Value[T]) Or(fallback T) T {
	if v.set {
		return v.value
	}
	return fallback
}

// UnmarshalJSON implements json.Unmarshaler: absent fields leave the Value
// unset (handled by encoding/json simply not calling this method), and a
// present field of any value, zero or not, marks it set.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &v.value); err != nil {
		return err
	}
	v.set = true
	return nil
}

// MarshalJSON implements json.Marshaler, rendering an unset Value as JSON
// null.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}
