package codec

import (
	"fmt"
	"reflect"
	"time"

	"github.com/aretw0/vizkit/pkg/value"
	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic Encoding.
var encMode cbor.EncMode

// decMode decodes untyped CBOR into map[string]any instead of CBOR's default
// map[interface{}]interface{}.
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Codec implements ports.Codec on top of a Typekit.
type Codec struct {
	kit *Typekit
}

// New creates a codec resolving type names through kit. A nil kit uses NewTypekit().
func New(kit *Typekit) *Codec {
	if kit == nil {
		kit = NewTypekit()
	}
	return &Codec{kit: kit}
}

// Typekit returns the type registry of the codec.
func (c *Codec) Typekit() *Typekit {
	return c.kit
}

// Decode implements ports.Codec.
func (c *Codec) Decode(raw []byte, typeName string) (value.Value, error) {
	var wire any
	if err := decMode.Unmarshal(raw, &wire); err != nil {
		return value.Value{}, fmt.Errorf("failed to decode %s: %w", typeName, err)
	}
	return c.shape(typeName, wire)
}

func (c *Codec) shape(typeName string, wire any) (value.Value, error) {
	def, ok := c.kit.Lookup(typeName)
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	switch def.Kind {
	case KindScalar:
		prim, err := def.scalar(wire)
		if err != nil {
			return value.Value{}, fmt.Errorf("%s: %w", typeName, err)
		}
		return value.Scalar(typeName, prim), nil
	case KindRecord:
		m, ok := wire.(map[string]any)
		if !ok {
			return value.Value{}, fmt.Errorf("%s: expected map, got %T", typeName, wire)
		}
		fields := make([]value.Field, 0, len(def.Fields))
		for _, f := range def.Fields {
			fw, ok := m[f.Name]
			if !ok {
				return value.Value{}, fmt.Errorf("%s: missing field %s", typeName, f.Name)
			}
			fv, err := c.shape(f.Type, fw)
			if err != nil {
				return value.Value{}, fmt.Errorf("%s.%s: %w", typeName, f.Name, err)
			}
			fields = append(fields, value.F(f.Name, fv))
		}
		return value.Record(typeName, fields...), nil
	case KindArray:
		items, ok := wire.([]any)
		if !ok {
			return value.Value{}, fmt.Errorf("%s: expected array, got %T", typeName, wire)
		}
		elems := make([]value.Value, len(items))
		for i, item := range items {
			ev, err := c.shape(def.Elem, item)
			if err != nil {
				return value.Value{}, fmt.Errorf("%s[%d]: %w", typeName, i, err)
			}
			elems[i] = ev
		}
		return value.Array(typeName, elems...), nil
	default:
		return value.Value{}, fmt.Errorf("%s: unsupported kind %q", typeName, def.Kind)
	}
}

// Encode implements ports.Codec. The value is checked against its type definition.
func (c *Codec) Encode(v value.Value) ([]byte, error) {
	wire, err := c.unshape(v)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(wire)
}

func (c *Codec) unshape(v value.Value) (any, error) {
	def, ok := c.kit.Lookup(v.TypeName())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, v.TypeName())
	}
	switch def.Kind {
	case KindScalar:
		if v.Kind() != value.KindScalar {
			return nil, fmt.Errorf("%s: expected scalar, got %s", def.Name, v.Kind())
		}
		prim := v.Interface()
		if t, ok := prim.(time.Time); ok {
			prim = t.UnixMicro()
		}
		if _, err := def.scalar(prim); err != nil {
			return nil, fmt.Errorf("%s: %w", def.Name, err)
		}
		return prim, nil
	case KindRecord:
		if v.Kind() != value.KindRecord {
			return nil, fmt.Errorf("%s: expected record, got %s", def.Name, v.Kind())
		}
		out := make(map[string]any, len(def.Fields))
		for _, f := range def.Fields {
			fv, ok := v.Field(f.Name)
			if !ok {
				return nil, fmt.Errorf("%s: missing field %s", def.Name, f.Name)
			}
			w, err := c.unshape(fv)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", def.Name, f.Name, err)
			}
			out[f.Name] = w
		}
		return out, nil
	case KindArray:
		if v.Kind() != value.KindArray {
			return nil, fmt.Errorf("%s: expected array, got %s", def.Name, v.Kind())
		}
		_, elems := v.Children()
		out := make([]any, len(elems))
		for i, e := range elems {
			w, err := c.unshape(e)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", def.Name, i, err)
			}
			out[i] = w
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: unsupported kind %q", def.Name, def.Kind)
	}
}
