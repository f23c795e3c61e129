package ports

import "github.com/aretw0/vizkit/pkg/value"

// Codec converts raw samples to structured values and back.
type Codec interface {
	Decode(raw []byte, typeName string) (value.Value, error)
	Encode(v value.Value) ([]byte, error)
}
