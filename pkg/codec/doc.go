// Package codec is the default serialization collaborator: it turns raw samples into
// value.Value trees and back.
//
// Samples travel as CBOR. Records are CBOR maps keyed by field name, arrays are CBOR
// arrays, and time scalars are integer microseconds since the Unix epoch. CBOR maps carry
// no field order, so decoding is driven by a Typekit: the type definition of the sample
// restores field order and normalizes scalars.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the same Value always
// produces the same bytes.
//
//	kit := codec.NewTypekit()
//	_ = kit.Register(codec.TypeDef{Name: "/base/Angle", Kind: codec.KindRecord,
//	    Fields: []codec.FieldDef{{Name: "rad", Type: "double"}}})
//	c := codec.New(kit)
//	raw, _ := c.Encode(v)
//	v, _ = c.Decode(raw, "/base/Angle")
//
// Type definitions can also be loaded from YAML with Typekit.LoadFile.
package codec
