package value

import (
	"math"
	"testing"
)

func person() Value {
	return Record(map[string]Value{
		"name": Str("A"),
		"id":   Array(Int(1), Int(2)),
		"phone": Array(
			Record(map[string]Value{"num": Str("x"), "type": Int(1)}),
		),
		"avatar": Bytes([]byte{0, 1}),
	})
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null", Null(), Null(), true},
		{"bool", Bool(true), Bool(true), true},
		{"bool differs", Bool(true), Bool(false), false},
		{"int", Int(-3), Int(-3), true},
		{"int uint same number", Int(5), UInt(5), true},
		{"uint int same number", UInt(5), Int(5), true},
		{"negative int vs uint", Int(-1), UInt(math.MaxUint64), false},
		{"double", Double(1.5), Double(1.5), true},
		{"nan", Double(math.NaN()), Double(math.NaN()), false},
		{"int vs double", Int(1), Double(1), false},
		{"str", Str("a"), Str("a"), true},
		{"str vs bytes", Str("a"), Bytes([]byte("a")), false},
		{"nil vs empty bytes", Bytes(nil), Bytes([]byte{}), true},
		{"empty arrays", Array(), Array([]Value{}...), true},
		{"array length", Array(Int(1)), Array(Int(1), Int(2)), false},
		{"nil vs empty record", Record(nil), Record(map[string]Value{}), true},
		{"record", person(), person(), true},
		{"record missing key", Record(map[string]Value{"a": Int(1)}), Record(map[string]Value{"b": Int(1)}), false},
		{"nested differs", person(), Record(map[string]Value{
			"name":   Str("A"),
			"id":     Array(Int(1), Int(2)),
			"phone":  Array(Record(map[string]Value{"num": Str("x"), "type": Int(2)})),
			"avatar": Bytes([]byte{0, 1}),
		}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	orig := person()
	cp := orig.Clone()
	if !cp.Equal(orig) {
		t.Fatalf("clone differs: %v vs %v", cp, orig)
	}

	fields, _ := cp.Fields()
	fields["name"] = Str("B")
	raw, _ := fields["avatar"].AsBytes()
	raw[0] = 9
	phones, _ := fields["phone"].Items()
	pf, _ := phones[0].Fields()
	pf["num"] = Str("changed")

	if name, _ := orig.Get("name"); !name.Equal(Str("A")) {
		t.Error("clone shares record map")
	}
	if av, _ := orig.Get("avatar"); !av.Equal(Bytes([]byte{0, 1})) {
		t.Error("clone shares bytes")
	}
	ph, _ := orig.Get("phone")
	first, _ := ph.Index(0)
	if num, _ := first.Get("num"); !num.Equal(Str("x")) {
		t.Error("clone shares nested record")
	}
}

func TestAccessors(t *testing.T) {
	p := person()
	if p.Kind() != KindRecord || p.Len() != 4 {
		t.Fatalf("Kind=%v Len=%d", p.Kind(), p.Len())
	}
	keys := p.Keys()
	want := []string{"avatar", "id", "name", "phone"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
	}
	ids, _ := p.Get("id")
	if _, ok := ids.Index(2); ok {
		t.Error("Index out of range should fail")
	}
	if v, ok := ids.Index(1); !ok || !v.Equal(Int(2)) {
		t.Errorf("Index(1) = %v, %v", v, ok)
	}
	if _, ok := Int(1).Get("x"); ok {
		t.Error("Get on non-record should fail")
	}
	if !Null().IsNull() || (Value{}).Kind() != KindNull {
		t.Error("zero Value should be Null")
	}
	if s, ok := Str("x").AsStr(); !ok || s != "x" {
		t.Error("AsStr")
	}
	if _, ok := Str("x").AsInt(); ok {
		t.Error("AsInt on Str should fail")
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), "null"},
		{Int(-2), "-2"},
		{UInt(7), "7u"},
		{Double(2), "2.0"},
		{Double(0.5), "0.5"},
		{Str("a\"b"), `"a\"b"`},
		{Bytes([]byte{0xab}), "0xab"},
		{Array(Int(1), Bool(false)), "[1, false]"},
		{Record(map[string]Value{"b": Int(1), "a": Int(2)}), "{a: 2, b: 1}"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromGo(t *testing.T) {
	type label string
	n := 3
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null()},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int8", int8(-8), Int(-8)},
		{"uint16", uint16(9), UInt(9)},
		{"float32", float32(0.5), Double(0.5)},
		{"string", "s", Str("s")},
		{"named string", label("l"), Str("l")},
		{"bytes", []byte{1}, Bytes([]byte{1})},
		{"byte array", [2]byte{1, 2}, Bytes([]byte{1, 2})},
		{"pointer", &n, Int(3)},
		{"nil pointer", (*int)(nil), Null()},
		{"any slice", []any{1, "a"}, Array(Int(1), Str("a"))},
		{"typed slice", []int32{1, 2}, Array(Int(1), Int(2))},
		{"map", map[string]any{"a": []any{map[string]any{"b": 1.5}}},
			Record(map[string]Value{"a": Array(Record(map[string]Value{"b": Double(1.5)}))})},
		{"typed map", map[string]int{"x": 1}, Record(map[string]Value{"x": Int(1)})},
		{"value passthrough", Str("v"), Str("v")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromGo(tt.in)
			if err != nil {
				t.Fatalf("FromGo: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("FromGo(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := FromGo(map[int]any{1: 1}); err == nil {
		t.Error("non-string map keys should fail")
	}
	if _, err := FromGo(map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("channels should fail")
	}
}

func TestToGo(t *testing.T) {
	p := person()
	back, err := FromGo(p.ToGo())
	if err != nil {
		t.Fatalf("FromGo(ToGo()): %v", err)
	}
	if !back.Equal(p) {
		t.Errorf("round trip = %v, want %v", back, p)
	}
	if Null().ToGo() != nil {
		t.Error("Null().ToGo() should be nil")
	}
}
