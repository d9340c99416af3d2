// Package value defines the dynamic Value exchanged with the codec.
//
// A Value is one of Null, Bool, Int, UInt, Double, Str, Bytes, Array or
// Record. Encoding reads Values, decoding produces fresh ones; nothing in
// this module retains a Value after a call returns.
//
//	person := value.Record(map[string]value.Value{
//		"name": value.Str("A"),
//		"id":   value.Array(value.Int(1), value.Int(2)),
//	})
//
// FromGo and ToGo convert between Values and plain Go data at the host
// boundary.
package value
