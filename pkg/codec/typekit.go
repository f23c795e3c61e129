package codec

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/vizkit/pkg/value"
	"gopkg.in/yaml.v3"
)

// ErrUnknownType is returned when a type name has no definition.
var ErrUnknownType = errors.New("unknown type")

// Kind of a type definition.
type Kind string

const (
	KindScalar Kind = "scalar"
	KindRecord Kind = "record"
	KindArray  Kind = "array"
)

// ScalarKind is the primitive family of a scalar type.
type ScalarKind string

const (
	ScalarBool   ScalarKind = "bool"
	ScalarInt    ScalarKind = "int"
	ScalarUint   ScalarKind = "uint"
	ScalarFloat  ScalarKind = "float"
	ScalarString ScalarKind = "string"
	ScalarBytes  ScalarKind = "bytes"
	ScalarTime   ScalarKind = "time"
)

// TypeDef describes one named type.
type TypeDef struct {
	Name   string     `yaml:"name"`
	Kind   Kind       `yaml:"kind"`
	Scalar ScalarKind `yaml:"scalar,omitempty"`
	// Bits is the width of an int or uint scalar. Zero means 64.
	Bits   int        `yaml:"bits,omitempty"`
	Fields []FieldDef `yaml:"fields,omitempty"`
	Elem   string     `yaml:"elem,omitempty"`
}

// FieldDef is one field of a record type.
type FieldDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Typekit is a registry of type definitions. Safe for concurrent use.
type Typekit struct {
	mu    sync.RWMutex
	types map[string]TypeDef
}

// NewTypekit returns a typekit preloaded with the builtin scalar types and /base/Time.
func NewTypekit() *Typekit {
	k := &Typekit{types: make(map[string]TypeDef)}
	builtins := map[ScalarKind][]string{
		ScalarBool:   {"bool"},
		ScalarInt:    {"int", "int8", "int16", "int32", "int64"},
		ScalarUint:   {"uint", "uint8", "uint16", "uint32", "uint64"},
		ScalarFloat:  {"float", "double", "float32", "float64"},
		ScalarString: {"string", "/std/string"},
		ScalarBytes:  {"bytes"},
		ScalarTime:   {"/base/Time"},
	}
	for kind, names := range builtins {
		for _, name := range names {
			k.types[name] = TypeDef{Name: name, Kind: KindScalar, Scalar: kind, Bits: builtinBits[name]}
		}
	}
	return k
}

var builtinBits = map[string]int{
	"int8": 8, "int16": 16, "int32": 32,
	"uint8": 8, "uint16": 16, "uint32": 32,
}

// Register adds type definitions, replacing existing ones with the same name.
func (k *Typekit) Register(defs ...TypeDef) error {
	for _, def := range defs {
		if err := validateDef(def); err != nil {
			return err
		}
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, def := range defs {
		k.types[def.Name] = def
	}
	return nil
}

func validateDef(def TypeDef) error {
	if def.Name == "" {
		return fmt.Errorf("type definition without name")
	}
	switch def.Kind {
	case KindScalar:
		switch def.Scalar {
		case ScalarInt, ScalarUint:
			switch def.Bits {
			case 0, 8, 16, 32, 64:
				return nil
			}
			return fmt.Errorf("type %s: unsupported width %d", def.Name, def.Bits)
		case ScalarBool, ScalarFloat, ScalarString, ScalarBytes, ScalarTime:
			if def.Bits != 0 {
				return fmt.Errorf("type %s: width only applies to int and uint", def.Name)
			}
			return nil
		default:
			return fmt.Errorf("type %s: unsupported scalar kind %q", def.Name, def.Scalar)
		}
	case KindRecord:
		seen := make(map[string]bool, len(def.Fields))
		for _, f := range def.Fields {
			if f.Name == "" || f.Type == "" {
				return fmt.Errorf("type %s: field needs a name and a type", def.Name)
			}
			if seen[f.Name] {
				return fmt.Errorf("type %s: duplicate field %s", def.Name, f.Name)
			}
			seen[f.Name] = true
		}
		return nil
	case KindArray:
		if def.Elem == "" {
			return fmt.Errorf("type %s: array needs an element type", def.Name)
		}
		return nil
	default:
		return fmt.Errorf("type %s: unsupported kind %q", def.Name, def.Kind)
	}
}

// Lookup returns the definition of name. Names of the form "[T]" resolve to an
// array of T without prior registration.
func (k *Typekit) Lookup(name string) (TypeDef, bool) {
	k.mu.RLock()
	def, ok := k.types[name]
	k.mu.RUnlock()
	if ok {
		return def, true
	}
	if len(name) > 2 && strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		elem := name[1 : len(name)-1]
		if _, ok := k.Lookup(elem); ok {
			return TypeDef{Name: name, Kind: KindArray, Elem: elem}, true
		}
	}
	return TypeDef{}, false
}

// Names returns the registered type names, sorted.
func (k *Typekit) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := make([]string, 0, len(k.types))
	for name := range k.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// typekitFile is the structure of a typekit YAML file.
type typekitFile struct {
	Types []TypeDef `yaml:"types"`
}

// LoadFile registers the type definitions found in a YAML file.
func (k *Typekit) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read typekit: %w", err)
	}
	var file typekitFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse typekit %s: %w", path, err)
	}
	return k.Register(file.Types...)
}

// scalar normalizes a wire primitive for the type and checks it fits the width.
func (d TypeDef) scalar(wire any) (any, error) {
	prim, err := d.Scalar.validate(wire)
	if err != nil || d.Bits == 0 || d.Bits == 64 {
		return prim, err
	}
	switch n := prim.(type) {
	case int64:
		limit := int64(1) << (d.Bits - 1)
		if n < -limit || n >= limit {
			return nil, fmt.Errorf("%w: %d does not fit int%d", value.ErrOutOfRange, n, d.Bits)
		}
	case uint64:
		if n >= uint64(1)<<d.Bits {
			return nil, fmt.Errorf("%w: %d does not fit uint%d", value.ErrOutOfRange, n, d.Bits)
		}
	}
	return prim, nil
}

// validate normalizes a wire primitive for the scalar kind.
func (s ScalarKind) validate(wire any) (any, error) {
	switch s {
	case ScalarBool:
		if b, ok := wire.(bool); ok {
			return b, nil
		}
	case ScalarInt:
		switch v := wire.(type) {
		case int64:
			return v, nil
		case uint64:
			if v <= math.MaxInt64 {
				return int64(v), nil
			}
			return nil, fmt.Errorf("%w: %d overflows int64", value.ErrOutOfRange, v)
		}
	case ScalarUint:
		switch v := wire.(type) {
		case uint64:
			return v, nil
		case int64:
			if v >= 0 {
				return uint64(v), nil
			}
			return nil, fmt.Errorf("expected unsigned, got %d", v)
		}
	case ScalarFloat:
		switch v := wire.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case uint64:
			return float64(v), nil
		}
	case ScalarString:
		if str, ok := wire.(string); ok {
			return str, nil
		}
	case ScalarBytes:
		switch v := wire.(type) {
		case []byte:
			return v, nil
		case string:
			return []byte(v), nil
		}
	case ScalarTime:
		switch v := wire.(type) {
		case int64:
			return time.UnixMicro(v), nil
		case uint64:
			if v <= math.MaxInt64 {
				return time.UnixMicro(int64(v)), nil
			}
		}
	}
	return nil, fmt.Errorf("expected %s, got %T", s, wire)
}
