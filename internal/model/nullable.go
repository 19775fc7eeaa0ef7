package model

import (
    "bytes"
    "encoding/json"
)

// Nullable is a JSON field of a partial update that distinguishes three
// states: absent from the payload, explicitly null, and set to a value.
// Only fields present in a request overwrite stored values.
type Nullable[T any] struct {
    Set   bool
    Value *T
}

// Some returns a Nullable holding v.
func Some[T any](v T) Nullable[T] {
    return Nullable[T]{Set: true, Value: &v}
}

// Null returns a Nullable that clears the stored value.
func Null[T any]() Nullable[T] {
    return Nullable[T]{Set: true}
}

// UnmarshalJSON is only invoked for keys present in the payload, which is
// what marks the field as set.
func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
    n.Set = true
    if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
        n.Value = nil
        return nil
    }
    var v T
    if err := json.Unmarshal(b, &v); err != nil {
        return err
    }
    n.Value = &v
    return nil
}

// MarshalJSON writes the value or null.
func (n Nullable[T]) MarshalJSON() ([]byte, error) {
    if n.Value == nil {
        return []byte("null"), nil
    }
    return json.Marshal(*n.Value)
}
