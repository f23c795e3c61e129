// Package value provides the in-memory representation of one structured sample.
//
// A Value is a tagged union of three shapes:
//
//	value.Scalar("/base/Time", time.Now())
//	value.Record("/base/Pose", value.F("x", value.Scalar("float64", 1.0)))
//	value.Array("/std/vector</int32_t>", value.Scalar("int32", int64(10)))
//
// Values are immutable snapshots. Producers build a fresh Value for every poll and
// consumers may keep it without copying. Patching a leaf (With) returns a new Value
// sharing untouched branches with the original.
//
// Scalars are normalized on construction: every signed integer becomes int64, every
// unsigned integer uint64, float32 becomes float64. Equality is structural and exact
// (floats compare by bit pattern), so an unchanged sample is detected as such even
// when it contains NaN.
package value
