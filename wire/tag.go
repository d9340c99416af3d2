package wire

import "fmt"

// Type is the 3-bit wire type stored in the low bits of a field tag.
type Type uint8

const (
	Varint  Type = 0 // uvarint payload
	Fixed64 Type = 1 // 8 bytes little-endian
	Bytes   Type = 2 // uvarint length then data
	List    Type = 3 // uvarint byte length, uvarint count, elements
	Fixed32 Type = 5 // 4 bytes little-endian
)

var typeNames = [...]string{
	Varint:  "varint",
	Fixed64: "fixed64",
	Bytes:   "bytes",
	List:    "list",
	Fixed32: "fixed32",
}

func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return fmt.Sprintf("wiretype(%d)", uint8(t))
}

// Valid reports whether t is a wire type the decoder knows how to skip.
func (t Type) Valid() bool {
	switch t {
	case Varint, Fixed64, Bytes, List, Fixed32:
		return true
	}
	return false
}

// MaxIndex is the largest field index that fits in a tag.
const MaxIndex = 1<<29 - 1

// MakeTag builds a field tag from a field index and wire type.
func MakeTag(index uint32, t Type) uint64 {
	return uint64(index)<<3 | uint64(t&7)
}

// SplitTag extracts the field index and wire type from a tag.
func SplitTag(tag uint64) (uint64, Type) {
	return tag >> 3, Type(tag & 7)
}
