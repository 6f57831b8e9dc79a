// Package serde contains the serialization and deserialization contracts
// used to move recorded events in and out of the Event Store backends.
package serde

// Serializer maps a Src value into its Dst representation.
type Serializer[Src, Dst any] interface {
	Serialize(src Src) (Dst, error)
}

// Deserializer maps a Dst representation back into a Src value.
type Deserializer[Src, Dst any] interface {
	Deserialize(dst Dst) (Src, error)
}

// Serde is both a Serializer and a Deserializer.
type Serde[Src, Dst any] interface {
	Serializer[Src, Dst]
	Deserializer[Src, Dst]
}

// Bytes is a Serde to and from raw bytes, the representation every
// Event Store backend persists.
type Bytes[Src any] interface {
	Serde[Src, []byte]
}

// SerializerFunc is a functional Serializer.
type SerializerFunc[Src, Dst any] func(src Src) (Dst, error)

// Serialize implements the serde.Serializer interface.
func (fn SerializerFunc[Src, Dst]) Serialize(src Src) (Dst, error) { return fn(src) }

// DeserializerFunc is a functional Deserializer.
type DeserializerFunc[Src, Dst any] func(dst Dst) (Src, error)

// Deserialize implements the serde.Deserializer interface.
func (fn DeserializerFunc[Src, Dst]) Deserialize(dst Dst) (Src, error) { return fn(dst) }

// Fused is a Serde made of two independent halves.
type Fused[Src, Dst any] struct {
	Serializer[Src, Dst]
	Deserializer[Src, Dst]
}

// Fuse pairs serializer and deserializer into a Serde.
func Fuse[Src, Dst any](serializer Serializer[Src, Dst], deserializer Deserializer[Src, Dst]) Fused[Src, Dst] {
	return Fused[Src, Dst]{Serializer: serializer, Deserializer: deserializer}
}
