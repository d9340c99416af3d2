package value

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindUInt
	KindDouble
	KindStr
	KindBytes
	KindArray
	KindRecord
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindUInt:   "uint",
	KindDouble: "double",
	KindStr:    "string",
	KindBytes:  "bytes",
	KindArray:  "array",
	KindRecord: "record",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a dynamically typed datum exchanged with the codec.
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	raw  []byte
	arr  []Value
	rec  map[string]Value
}

func Null() Value                { return Value{} }
func Bool(v bool) Value          { return Value{kind: KindBool, b: v} }
func Int(v int64) Value          { return Value{kind: KindInt, i: v} }
func UInt(v uint64) Value        { return Value{kind: KindUInt, u: v} }
func Double(v float64) Value     { return Value{kind: KindDouble, f: v} }
func Str(v string) Value         { return Value{kind: KindStr, s: v} }
func Bytes(v []byte) Value       { return Value{kind: KindBytes, raw: v} }
func Array(items ...Value) Value { return Value{kind: KindArray, arr: items} }

// Record wraps fields. A nil map is an empty record.
func Record(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindRecord, rec: fields}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool)      { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)      { return v.i, v.kind == KindInt }
func (v Value) AsUInt() (uint64, bool)    { return v.u, v.kind == KindUInt }
func (v Value) AsDouble() (float64, bool) { return v.f, v.kind == KindDouble }
func (v Value) AsStr() (string, bool)     { return v.s, v.kind == KindStr }
func (v Value) AsBytes() ([]byte, bool)   { return v.raw, v.kind == KindBytes }

// Items returns the elements of an Array.
func (v Value) Items() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Fields returns the map of a Record. Callers must not mutate it.
func (v Value) Fields() (map[string]Value, bool) { return v.rec, v.kind == KindRecord }

// Len returns the element count of an Array, the field count of a Record,
// the byte length of Str and Bytes, and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindRecord:
		return len(v.rec)
	case KindStr:
		return len(v.s)
	case KindBytes:
		return len(v.raw)
	}
	return 0
}

// Get returns a record field.
func (v Value) Get(name string) (Value, bool) {
	if v.kind != KindRecord {
		return Value{}, false
	}
	f, ok := v.rec[name]
	return f, ok
}

// Index returns an array element.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Keys returns record field names sorted.
func (v Value) Keys() []string {
	if v.kind != KindRecord {
		return nil
	}
	keys := make([]string, 0, len(v.rec))
	for k := range v.rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports deep structural equality. Int and UInt holding the same
// number are equal; NaN is never equal to anything.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		switch {
		case v.kind == KindInt && o.kind == KindUInt:
			return v.i >= 0 && uint64(v.i) == o.u
		case v.kind == KindUInt && o.kind == KindInt:
			return o.i >= 0 && uint64(o.i) == v.u
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindUInt:
		return v.u == o.u
	case KindDouble:
		return v.f == o.f
	case KindStr:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		if len(v.rec) != len(o.rec) {
			return false
		}
		for k, fv := range v.rec {
			ov, ok := o.rec[k]
			if !ok || !fv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindBytes:
		if v.raw != nil {
			v.raw = append([]byte(nil), v.raw...)
		}
	case KindArray:
		if v.arr != nil {
			arr := make([]Value, len(v.arr))
			for i, e := range v.arr {
				arr[i] = e.Clone()
			}
			v.arr = arr
		}
	case KindRecord:
		rec := make(map[string]Value, len(v.rec))
		for k, e := range v.rec {
			rec[k] = e.Clone()
		}
		v.rec = rec
	}
	return v
}

// String renders v in a compact debug notation with sorted record keys.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindUInt:
		b.WriteString(strconv.FormatUint(v.u, 10))
		b.WriteByte('u')
	case KindDouble:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		b.WriteString(s)
		if !math.IsInf(v.f, 0) && !math.IsNaN(v.f) && !strings.ContainsAny(s, ".e") {
			b.WriteString(".0")
		}
	case KindStr:
		b.WriteString(strconv.Quote(v.s))
	case KindBytes:
		fmt.Fprintf(b, "0x%x", v.raw)
	case KindArray:
		b.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				b.WriteString(", ")
			}
			e.write(b)
		}
		b.WriteByte(']')
	case KindRecord:
		b.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			v.rec[k].write(b)
		}
		b.WriteByte('}')
	}
}
