package wire

import (
	"errors"
	"io"
)

// LEB128 utilities for the sgeproto code and frame formats

// ErrOverflow is returned when a varint exceeds 64 bits.
var ErrOverflow = errors.New("varint: overflow")

// MaxVarintLen is the maximum encoded size of a 64-bit varint.
const MaxVarintLen = 10

// ReadUvarint reads an unsigned 64-bit LEB128 value.
// A stream that ends mid-value returns io.ErrUnexpectedEOF.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if i > 0 && err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		if i == MaxVarintLen-1 && b > 1 {
			return 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if i == MaxVarintLen-1 {
			return 0, ErrOverflow
		}
	}
}

// AppendUvarint appends the LEB128 encoding of v.
func AppendUvarint(b []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		b = append(b, c)
		if v == 0 {
			return b
		}
	}
}

// EncodeUvarint encodes v to a fresh slice.
func EncodeUvarint(v uint64) []byte {
	return AppendUvarint(make([]byte, 0, SizeUvarint(v)), v)
}

// SizeUvarint returns the encoded size of v.
func SizeUvarint(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
