package serde

import (
	"encoding/json"
	"fmt"
)

var _ Bytes[any] = JSON[any]{}

// JSON is a Bytes serde using encoding/json.
//
// New allocates the value to decode into; it must be set when T is a
// pointer type, otherwise the zero value of T is used.
type JSON[T any] struct {
	New func() T
}

// NewJSON returns a JSON serde allocating decoded values with factory.
func NewJSON[T any](factory func() T) JSON[T] {
	return JSON[T]{New: factory}
}

// Serialize implements the serde.Serializer interface.
func (s JSON[T]) Serialize(value T) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("serde.JSON: failed to serialize %T, %w", value, err)
	}

	return data, nil
}

// Deserialize implements the serde.Deserializer interface.
func (s JSON[T]) Deserialize(data []byte) (T, error) {
	var value T
	if s.New != nil {
		value = s.New()
	}

	if err := json.Unmarshal(data, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("serde.JSON: failed to deserialize %T, %w", value, err)
	}

	return value, nil
}
