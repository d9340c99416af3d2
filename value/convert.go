package value

import (
	"fmt"
	"reflect"
)

// FromGo converts a host Go value into a Value.
//
// Supported inputs: nil, bool, all integer widths, float32/64, string,
// []byte, Value, slices and arrays, and maps keyed by string. Pointers are
// followed; a nil pointer becomes Null. Map keys of other types are
// rejected so record field names stay unambiguous.
func FromGo(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return UInt(uint64(t)), nil
	case uint8:
		return UInt(uint64(t)), nil
	case uint16:
		return UInt(uint64(t)), nil
	case uint32:
		return UInt(uint64(t)), nil
	case uint64:
		return UInt(t), nil
	case float32:
		return Double(float64(t)), nil
	case float64:
		return Double(t), nil
	case string:
		return Str(t), nil
	case []byte:
		return Bytes(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			v, err := FromGo(e)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Array(items...), nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, e := range t {
			v, err := FromGo(e)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			fields[k] = v
		}
		return Record(fields), nil
	}
	return fromReflect(reflect.ValueOf(x))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return UInt(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Double(rv.Float()), nil
	case reflect.String:
		return Str(rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			raw := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(raw), rv)
			return Bytes(raw), nil
		}
		items := make([]Value, rv.Len())
		for i := range items {
			v, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = v
		}
		return Array(items...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("map key type %s is not string", rv.Type().Key())
		}
		fields := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			v, err := FromGo(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			fields[k] = v
		}
		return Record(fields), nil
	}
	return Value{}, fmt.Errorf("unsupported Go type %s", rv.Type())
}

// ToGo converts v into plain Go values: nil, bool, int64, uint64, float64,
// string, []byte, []any and map[string]any.
func (v Value) ToGo() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindUInt:
		return v.u
	case KindDouble:
		return v.f
	case KindStr:
		return v.s
	case KindBytes:
		return v.raw
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToGo()
		}
		return out
	case KindRecord:
		out := make(map[string]any, len(v.rec))
		for k, e := range v.rec {
			out[k] = e.ToGo()
		}
		return out
	}
	return nil
}
