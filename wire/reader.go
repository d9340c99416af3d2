package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wippyai/sgeproto/errors"
)

// Reader is a bounds-checked cursor over an encoded buffer.
// Every failure is an *errors.Error carrying the absolute byte offset.
type Reader struct {
	buf   []byte
	pos   int
	base  int
	phase errors.Phase
}

// NewReader returns a reader over buf. Errors are tagged with phase.
func NewReader(buf []byte, phase errors.Phase) *Reader {
	return &Reader{buf: buf, phase: phase}
}

// Sub returns a reader limited to the next n bytes and advances past them.
// Offsets reported by the sub-reader stay absolute.
func (r *Reader) Sub(n int) (*Reader, error) {
	data, err := r.ReadN(n)
	if err != nil {
		return nil, err
	}
	return &Reader{buf: data, base: r.Offset() - n, phase: r.phase}, nil
}

// Offset returns the absolute position of the cursor.
func (r *Reader) Offset() int {
	return r.base + r.pos
}

// Pos returns the position relative to the start of this reader.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

func (r *Reader) truncated(need int) *errors.Error {
	return errors.Truncated(r.phase, r.Offset(), need, r.Len())
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, r.truncated(1)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadUvarint reads an unsigned LEB128 value.
func (r *Reader) ReadUvarint() (uint64, error) {
	start := r.pos
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		if r.pos >= len(r.buf) {
			r.pos = start
			return 0, errors.New(r.phase, errors.KindTruncated).
				Offset(r.base + start).
				Detail("varint runs past end of buffer").
				Build()
		}
		b := r.buf[r.pos]
		r.pos++
		if i == MaxVarintLen-1 && b > 1 {
			return 0, errors.InvalidData(r.phase, nil, r.base+start, ErrOverflow.Error())
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// ReadLen reads a uvarint length and checks it against the remaining bytes.
func (r *Reader) ReadLen() (int, error) {
	start := r.Offset()
	n, err := r.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Len()) {
		return 0, errors.New(r.phase, errors.KindTruncated).
			Offset(start).
			Detail("declared length %d exceeds remaining %d bytes", n, r.Len()).
			Build()
	}
	return int(n), nil
}

// ReadN returns the next n bytes without copying.
func (r *Reader) ReadN(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, r.truncated(n)
	}
	b := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadFixed32() (uint32, error) {
	b, err := r.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadFixed64() (uint64, error) {
	b, err := r.ReadN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadFixed32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadFixed64()
	return math.Float64frombits(v), err
}

// ReadLenBytes reads a length-prefixed byte slice without copying.
func (r *Reader) ReadLenBytes() ([]byte, error) {
	n, err := r.ReadLen()
	if err != nil {
		return nil, err
	}
	return r.ReadN(n)
}

// ReadTag reads a field tag.
func (r *Reader) ReadTag() (uint64, Type, error) {
	tag, err := r.ReadUvarint()
	if err != nil {
		return 0, 0, err
	}
	index, t := SplitTag(tag)
	return index, t, nil
}

// Skip advances past one payload of wire type t.
func (r *Reader) Skip(t Type) error {
	switch t {
	case Varint:
		_, err := r.ReadUvarint()
		return err
	case Fixed64:
		_, err := r.ReadN(8)
		return err
	case Fixed32:
		_, err := r.ReadN(4)
		return err
	case Bytes, List:
		n, err := r.ReadLen()
		if err != nil {
			return err
		}
		_, err = r.ReadN(n)
		return err
	default:
		return errors.InvalidData(r.phase, nil, r.Offset(), fmt.Sprintf("cannot skip %s", t))
	}
}
