package wire

import (
	"encoding/binary"
	"math"
)

// Buffer accumulates encoded bytes.
type Buffer struct {
	Bytes []byte
}

// NewBuffer returns a buffer with room for size bytes.
func NewBuffer(size int) *Buffer {
	return &Buffer{Bytes: make([]byte, 0, size)}
}

func (b *Buffer) Len() int {
	return len(b.Bytes)
}

func (b *Buffer) AppendByte(v byte) {
	b.Bytes = append(b.Bytes, v)
}

func (b *Buffer) WriteBytes(v []byte) {
	b.Bytes = append(b.Bytes, v...)
}

// WriteUvarint writes unsigned LEB128 encoding.
func (b *Buffer) WriteUvarint(v uint64) {
	b.Bytes = AppendUvarint(b.Bytes, v)
}

// WriteTag writes a field tag.
func (b *Buffer) WriteTag(index uint32, t Type) {
	b.WriteUvarint(MakeTag(index, t))
}

func (b *Buffer) WriteFixed32(v uint32) {
	b.Bytes = binary.LittleEndian.AppendUint32(b.Bytes, v)
}

func (b *Buffer) WriteFixed64(v uint64) {
	b.Bytes = binary.LittleEndian.AppendUint64(b.Bytes, v)
}

func (b *Buffer) WriteFloat32(v float32) {
	b.WriteFixed32(math.Float32bits(v))
}

func (b *Buffer) WriteFloat64(v float64) {
	b.WriteFixed64(math.Float64bits(v))
}

func (b *Buffer) WriteBool(v bool) {
	if v {
		b.AppendByte(1)
	} else {
		b.AppendByte(0)
	}
}

// WriteString writes a length-prefixed string.
func (b *Buffer) WriteString(s string) {
	b.WriteUvarint(uint64(len(s)))
	b.Bytes = append(b.Bytes, s...)
}

// WriteLenBytes writes a length-prefixed byte slice.
func (b *Buffer) WriteLenBytes(v []byte) {
	b.WriteUvarint(uint64(len(v)))
	b.Bytes = append(b.Bytes, v...)
}
