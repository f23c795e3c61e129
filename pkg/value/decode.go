package value

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies v into out, a pointer to a Go struct, map or slice. Record fields map
// to struct fields through `mapstructure` tags (or case-insensitive names).
func (v Value) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05.999999999Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(v.ToAny()); err != nil {
		return fmt.Errorf("failed to decode %s: %w", v.typeName, err)
	}
	return nil
}
