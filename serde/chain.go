package serde

import "fmt"

// Chain composes two serdes into one mapping Src to Dst, going through
// the Mid representation: first maps Src to Mid, second maps Mid to Dst.
//
// Errors name the failing stage, so that a broken wire format can be told
// apart from a value the first stage does not know how to map.
func Chain[Src, Mid, Dst any](first Serde[Src, Mid], second Serde[Mid, Dst]) Fused[Src, Dst] {
	serialize := func(src Src) (Dst, error) {
		var dst Dst

		mid, err := first.Serialize(src)
		if err != nil {
			return dst, fmt.Errorf("serde.Chain: first stage serializer failed, %w", err)
		}

		if dst, err = second.Serialize(mid); err != nil {
			return dst, fmt.Errorf("serde.Chain: second stage serializer failed, %w", err)
		}

		return dst, nil
	}

	deserialize := func(dst Dst) (Src, error) {
		var src Src

		mid, err := second.Deserialize(dst)
		if err != nil {
			return src, fmt.Errorf("serde.Chain: second stage deserializer failed, %w", err)
		}

		if src, err = first.Deserialize(mid); err != nil {
			return src, fmt.Errorf("serde.Chain: first stage deserializer failed, %w", err)
		}

		return src, nil
	}

	return Fuse[Src, Dst](SerializerFunc[Src, Dst](serialize), DeserializerFunc[Src, Dst](deserialize))
}
