package schema

import (
	"github.com/wippyai/sgeproto/wire"
)

// Kind is the scalar or composite type of a field.
type Kind uint8

const (
	KindInt32 Kind = iota
	KindInt64
	KindUInt32
	KindUInt64
	KindFloat
	KindDouble
	KindBool
	KindString
	KindBytes
	KindMessage
)

var kindNames = [...]string{
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUInt32:  "uint32",
	KindUInt64:  "uint64",
	KindFloat:   "float",
	KindDouble:  "double",
	KindBool:    "bool",
	KindString:  "string",
	KindBytes:   "bytes",
	KindMessage: "message",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// WireType returns the wire type of a single, non-repeated value of kind k.
func (k Kind) WireType() wire.Type {
	switch k {
	case KindInt32, KindUInt32, KindFloat:
		return wire.Fixed32
	case KindInt64, KindUInt64, KindDouble:
		return wire.Fixed64
	case KindBool:
		return wire.Varint
	default:
		return wire.Bytes
	}
}

// FixedSize returns the encoded width of fixed-size kinds, or 0.
func (k Kind) FixedSize() int {
	switch k.WireType() {
	case wire.Fixed32:
		return 4
	case wire.Fixed64:
		return 8
	}
	if k == KindBool {
		return 1
	}
	return 0
}

var builtins = map[string]Kind{
	"int32":   KindInt32,
	"int64":   KindInt64,
	"uint32":  KindUInt32,
	"uint64":  KindUInt64,
	"float":   KindFloat,
	"double":  KindDouble,
	"bool":    KindBool,
	"string":  KindString,
	"bytes":   KindBytes,
	"integer": KindInt64,
	"number":  KindDouble,
}

// Builtin looks up a builtin type name, including aliases.
func Builtin(name string) (Kind, bool) {
	k, ok := builtins[name]
	return k, ok
}

// FieldType is a resolved field type. Message is set only for KindMessage.
type FieldType struct {
	Message *MessageDef
	Kind    Kind
}

func (t FieldType) String() string {
	if t.Kind == KindMessage && t.Message != nil {
		return t.Message.Name
	}
	return t.Kind.String()
}

type Cardinality uint8

const (
	Singular Cardinality = iota
	Repeated
)

func (c Cardinality) String() string {
	if c == Repeated {
		return "repeated"
	}
	return "singular"
}

type Presence uint8

const (
	Optional Presence = iota
	Required
)

func (p Presence) String() string {
	if p == Required {
		return "required"
	}
	return "optional"
}

// FieldDef describes one declared field. Index is the 1-based declaration
// position and doubles as the wire tag number.
type FieldDef struct {
	Name        string
	Type        FieldType
	Index       uint32
	Cardinality Cardinality
	Presence    Presence
	Line        int
}

func (f *FieldDef) Repeated() bool { return f.Cardinality == Repeated }
func (f *FieldDef) Required() bool { return f.Presence == Required }

// WireType returns the wire type used when the field is encoded.
func (f *FieldDef) WireType() wire.Type {
	if f.Repeated() {
		return wire.List
	}
	return f.Type.Kind.WireType()
}

// TypeString renders the declared type, e.g. "Phone[]".
func (f *FieldDef) TypeString() string {
	if f.Repeated() {
		return f.Type.String() + "[]"
	}
	return f.Type.String()
}

// MessageDef is an immutable message type.
type MessageDef struct {
	byName map[string]*FieldDef
	Name   string
	Fields []*FieldDef
	ID     uint32
	Line   int
}

// Field looks up a field by name.
func (m *MessageDef) Field(name string) (*FieldDef, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// FieldByIndex looks up a field by its tag index.
func (m *MessageDef) FieldByIndex(index uint64) (*FieldDef, bool) {
	if index == 0 || index > uint64(len(m.Fields)) {
		return nil, false
	}
	return m.Fields[index-1], true
}

// RequiredFields returns the required fields in declaration order.
func (m *MessageDef) RequiredFields() []*FieldDef {
	var out []*FieldDef
	for _, f := range m.Fields {
		if f.Required() {
			out = append(out, f)
		}
	}
	return out
}
