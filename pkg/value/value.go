package value

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoSuchKey is returned when a path does not address a child of a value.
	ErrNoSuchKey = errors.New("no such key")
	// ErrNotScalar is returned when a scalar operation is applied to a composite value.
	ErrNotScalar = errors.New("not a scalar")
	// ErrOutOfRange is returned when a number does not fit the primitive or the
	// width of its type.
	ErrOutOfRange = errors.New("out of range")
)

// Kind is the shape of a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindScalar
	KindRecord
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindRecord:
		return "record"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is an immutable structured sample. The zero Value is invalid.
type Value struct {
	kind     Kind
	typeName string
	scalar   any
	fields   []Field
	elems    []Value
}

// Field is one named member of a record.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for building a record field.
func F(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// Scalar builds a scalar value. Numeric primitives are normalized to int64,
// uint64 or float64.
func Scalar(typeName string, v any) Value {
	return Value{kind: KindScalar, typeName: typeName, scalar: normalize(v)}
}

// Record builds a record with fields in the given order.
func Record(typeName string, fields ...Field) Value {
	return Value{kind: KindRecord, typeName: typeName, fields: append([]Field(nil), fields...)}
}

// Array builds an array with elements in the given order.
func Array(typeName string, elems ...Value) Value {
	return Value{kind: KindArray, typeName: typeName, elems: append([]Value(nil), elems...)}
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return uint64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) TypeName() string  { return v.typeName }
func (v Value) IsValid() bool     { return v.kind != KindInvalid }
func (v Value) IsScalar() bool    { return v.kind == KindScalar }
func (v Value) IsComposite() bool { return v.kind == KindRecord || v.kind == KindArray }

// Interface returns the primitive held by a scalar, or nil for composites.
func (v Value) Interface() any {
	if v.kind != KindScalar {
		return nil
	}
	return v.scalar
}

// Fields returns a copy of the fields of a record.
func (v Value) Fields() []Field {
	return append([]Field(nil), v.fields...)
}

// Field looks up a record field by name.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of children of a composite value.
func (v Value) Len() int {
	switch v.kind {
	case KindRecord:
		return len(v.fields)
	case KindArray:
		return len(v.elems)
	default:
		return 0
	}
}

// Index returns the i-th element of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.elems) {
		return Value{}, false
	}
	return v.elems[i], true
}

// Children returns the keys and values of the direct children, in order.
// Array keys are decimal indices.
func (v Value) Children() ([]string, []Value) {
	switch v.kind {
	case KindRecord:
		keys := make([]string, len(v.fields))
		vals := make([]Value, len(v.fields))
		for i, f := range v.fields {
			keys[i] = f.Name
			vals[i] = f.Value
		}
		return keys, vals
	case KindArray:
		keys := make([]string, len(v.elems))
		for i := range v.elems {
			keys[i] = strconv.Itoa(i)
		}
		return keys, append([]Value(nil), v.elems...)
	default:
		return nil, nil
	}
}

// Child returns the direct child addressed by key.
func (v Value) Child(key string) (Value, bool) {
	switch v.kind {
	case KindRecord:
		return v.Field(key)
	case KindArray:
		i, err := strconv.Atoi(key)
		if err != nil {
			return Value{}, false
		}
		return v.Index(i)
	default:
		return Value{}, false
	}
}

// Get walks path from v.
func (v Value) Get(path Path) (Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Child(key)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// With returns a copy of v where the node at path is replaced by leaf.
// Branches off the path are shared with v.
func (v Value) With(path Path, leaf Value) (Value, error) {
	if len(path) == 0 {
		return leaf, nil
	}
	key := path[0]
	switch v.kind {
	case KindRecord:
		for i, f := range v.fields {
			if f.Name != key {
				continue
			}
			child, err := f.Value.With(path[1:], leaf)
			if err != nil {
				return Value{}, err
			}
			out := v
			out.fields = append([]Field(nil), v.fields...)
			out.fields[i] = Field{Name: key, Value: child}
			return out, nil
		}
	case KindArray:
		i, err := strconv.Atoi(key)
		if err == nil && i >= 0 && i < len(v.elems) {
			child, err := v.elems[i].With(path[1:], leaf)
			if err != nil {
				return Value{}, err
			}
			out := v
			out.elems = append([]Value(nil), v.elems...)
			out.elems[i] = child
			return out, nil
		}
	}
	return Value{}, fmt.Errorf("%w: %q in %s", ErrNoSuchKey, key, v.typeName)
}

// Equal reports whether two values are structurally identical, including type names.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.typeName != o.typeName {
		return false
	}
	switch v.kind {
	case KindScalar:
		return scalarEqual(v.scalar, o.scalar)
	case KindRecord:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func scalarEqual(a, b any) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && math.Float64bits(x) == math.Float64bits(y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	default:
		return a == b
	}
}

// Walk visits v and its descendants in pre-order. Returning false from fn skips
// the children of the visited value.
func (v Value) Walk(fn func(path Path, v Value) bool) {
	v.walk(nil, fn)
}

func (v Value) walk(path Path, fn func(Path, Value) bool) {
	if !fn(path, v) {
		return
	}
	keys, vals := v.Children()
	for i := range keys {
		vals[i].walk(path.Append(keys[i]), fn)
	}
}

// ToAny converts v into plain Go maps, slices and primitives.
func (v Value) ToAny() any {
	switch v.kind {
	case KindScalar:
		return v.scalar
	case KindRecord:
		out := make(map[string]any, len(v.fields))
		for _, f := range v.fields {
			out[f.Name] = f.Value.ToAny()
		}
		return out
	case KindArray:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.ToAny()
		}
		return out
	default:
		return nil
	}
}

// String renders a short human readable form.
func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return FormatScalar(v.scalar)
	case KindRecord:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.Name + ": " + f.Value.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}

// FormatScalar renders a scalar primitive.
func FormatScalar(s any) string {
	switch x := s.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case []byte:
		return fmt.Sprintf("%x", x)
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
