// Package loaders holds the built-in asset decoders. Each decoder turns
// one raw bundle entry into a usable object; the resource system keys
// them by resource type.
package loaders

// TextDecoder yields the entry as a string.
type TextDecoder struct{}

func (TextDecoder) Decode(name string, data []byte) (interface{}, error) {
	return string(data), nil
}

// BinaryDecoder yields a copy of the entry bytes. The copy keeps the
// caller from aliasing the bundle's payload.
type BinaryDecoder struct{}

func (BinaryDecoder) Decode(name string, data []byte) (interface{}, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
