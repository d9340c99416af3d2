package codec

import (
	"fmt"
	"unicode/utf8"

	"github.com/wippyai/sgeproto/errors"
	"github.com/wippyai/sgeproto/schema"
	"github.com/wippyai/sgeproto/value"
	"github.com/wippyai/sgeproto/wire"
)

// Message is one decoded top-level message.
type Message struct {
	Record   value.Value
	Type     string
	ID       uint32
	Consumed int
}

// Decoder reads code produced by an Encoder over the same registry.
//
// In the default tolerant mode unknown field tags are skipped using their
// wire type and a repeated singular field keeps its last occurrence.
// Strict mode rejects both.
type Decoder struct {
	reg      *schema.Registry
	Strict   bool
	MaxDepth int
}

func NewDecoder(reg *schema.Registry) *Decoder {
	return &Decoder{reg: reg, MaxDepth: DefaultMaxDepth}
}

// Decode reads exactly one message from the start of buf. Bytes after the
// message are left untouched and reported through Consumed.
func (d *Decoder) Decode(buf []byte) (*Message, error) {
	if d.reg == nil {
		return nil, errors.MissingSchema(errors.PhaseDecode)
	}
	r := wire.NewReader(buf, errors.PhaseDecode)

	version, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, 0, fmt.Sprintf("unsupported format version %d", version))
	}

	idOff := r.Offset()
	id, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if id > uint64(^uint32(0)) {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, idOff, fmt.Sprintf("message id %d out of range", id))
	}
	m, ok := d.reg.ByID(uint32(id))
	if !ok {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, idOff, fmt.Sprintf("unknown message id %d", id))
	}

	n, err := r.ReadLen()
	if err != nil {
		return nil, annotate(err, m.Name, nil)
	}
	body, err := r.Sub(n)
	if err != nil {
		return nil, annotate(err, m.Name, nil)
	}

	s := &decodeState{top: m.Name, strict: d.Strict, maxDepth: d.maxDepth()}
	rec, err := s.message(m, body, nil, 0)
	if err != nil {
		return nil, err
	}
	return &Message{Record: rec, Type: m.Name, ID: m.ID, Consumed: r.Pos()}, nil
}

// DecodeAll decodes back-to-back messages until buf is exhausted.
func (d *Decoder) DecodeAll(buf []byte) ([]*Message, error) {
	var out []*Message
	for off := 0; off < len(buf); {
		msg, err := d.Decode(buf[off:])
		if err != nil {
			return out, shift(err, off)
		}
		out = append(out, msg)
		off += msg.Consumed
	}
	return out, nil
}

func (d *Decoder) maxDepth() int {
	if d.MaxDepth > 0 {
		return d.MaxDepth
	}
	return DefaultMaxDepth
}

type decodeState struct {
	top      string // top-level message name for error context
	strict   bool
	maxDepth int
}

func (s *decodeState) message(m *schema.MessageDef, r *wire.Reader, path []string, depth int) (value.Value, error) {
	if depth > s.maxDepth {
		return value.Value{}, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Message(s.top).
			Path(path...).
			Offset(r.Offset()).
			Detail("nesting deeper than %d", s.maxDepth).
			Build()
	}

	fields := make(map[string]value.Value, len(m.Fields))
	for r.Len() > 0 {
		tagOff := r.Offset()
		index, wt, err := r.ReadTag()
		if err != nil {
			return value.Value{}, annotate(err, s.top, path)
		}

		f, ok := m.FieldByIndex(index)
		if !ok {
			if s.strict {
				return value.Value{}, errors.UnknownTag(s.top, path, tagOff, index)
			}
			if err := r.Skip(wt); err != nil {
				return value.Value{}, annotate(err, s.top, path)
			}
			continue
		}

		fpath := appendPath(path, f.Name)
		if wt != f.WireType() {
			err := errors.InvalidData(errors.PhaseDecode, fpath, tagOff,
				fmt.Sprintf("wire type %s, expected %s", wt, f.WireType()))
			err.Message = s.top
			return value.Value{}, err
		}
		if _, dup := fields[f.Name]; dup && s.strict {
			err := errors.InvalidData(errors.PhaseDecode, fpath, tagOff, "field occurs more than once")
			err.Message = s.top
			return value.Value{}, err
		}

		var v value.Value
		if f.Repeated() {
			v, err = s.list(f, r, fpath, depth)
		} else {
			v, err = s.element(f.Type, r, fpath, depth)
		}
		if err != nil {
			return value.Value{}, err
		}
		fields[f.Name] = v
	}

	for _, f := range m.Fields {
		if _, ok := fields[f.Name]; !ok && f.Required() {
			err := errors.FieldMissing(errors.PhaseDecode, s.top, appendPath(path, f.Name), f.Name)
			err.Offset = r.Offset()
			return value.Value{}, err
		}
	}
	return value.Record(fields), nil
}

func (s *decodeState) list(f *schema.FieldDef, r *wire.Reader, path []string, depth int) (value.Value, error) {
	n, err := r.ReadLen()
	if err != nil {
		return value.Value{}, annotate(err, s.top, path)
	}
	sub, err := r.Sub(n)
	if err != nil {
		return value.Value{}, annotate(err, s.top, path)
	}

	countOff := sub.Offset()
	count, err := sub.ReadUvarint()
	if err != nil {
		return value.Value{}, annotate(err, s.top, path)
	}
	// every element takes at least one byte
	if count > uint64(sub.Len()) {
		return value.Value{}, errors.New(errors.PhaseDecode, errors.KindTruncated).
			Message(s.top).
			Path(path...).
			Offset(countOff).
			Detail("list declares %d elements in %d bytes", count, sub.Len()).
			Build()
	}

	items := make([]value.Value, 0, count)
	for i := 0; i < int(count); i++ {
		v, err := s.element(f.Type, sub, appendPath(path, errors.Index(i)), depth)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v)
	}
	if sub.Len() != 0 {
		err := errors.InvalidData(errors.PhaseDecode, path, sub.Offset(),
			fmt.Sprintf("%d trailing bytes after %d list elements", sub.Len(), count))
		err.Message = s.top
		return value.Value{}, err
	}
	return value.Array(items...), nil
}

func (s *decodeState) element(t schema.FieldType, r *wire.Reader, path []string, depth int) (value.Value, error) {
	v, err := s.read(t, r, path, depth)
	if err != nil {
		return value.Value{}, annotate(err, s.top, path)
	}
	return v, nil
}

func (s *decodeState) read(t schema.FieldType, r *wire.Reader, path []string, depth int) (value.Value, error) {
	switch t.Kind {
	case schema.KindInt32:
		u, err := r.ReadFixed32()
		return value.Int(int64(int32(u))), err
	case schema.KindUInt32:
		u, err := r.ReadFixed32()
		return value.UInt(uint64(u)), err
	case schema.KindFloat:
		f, err := r.ReadFloat32()
		return value.Double(float64(f)), err
	case schema.KindInt64:
		u, err := r.ReadFixed64()
		return value.Int(int64(u)), err
	case schema.KindUInt64:
		u, err := r.ReadFixed64()
		return value.UInt(u), err
	case schema.KindDouble:
		f, err := r.ReadFloat64()
		return value.Double(f), err
	case schema.KindBool:
		off := r.Offset()
		u, err := r.ReadUvarint()
		if err != nil {
			return value.Value{}, err
		}
		if u > 1 {
			return value.Value{}, errors.InvalidData(errors.PhaseDecode, path, off, fmt.Sprintf("invalid bool %d", u))
		}
		return value.Bool(u == 1), nil
	case schema.KindString:
		off := r.Offset()
		b, err := r.ReadLenBytes()
		if err != nil {
			return value.Value{}, err
		}
		if !utf8.Valid(b) {
			return value.Value{}, errors.InvalidData(errors.PhaseDecode, path, off, "invalid UTF-8 in string")
		}
		return value.Str(string(b)), nil
	case schema.KindBytes:
		b, err := r.ReadLenBytes()
		if err != nil {
			return value.Value{}, err
		}
		return value.Bytes(append([]byte{}, b...)), nil
	case schema.KindMessage:
		n, err := r.ReadLen()
		if err != nil {
			return value.Value{}, err
		}
		sub, err := r.Sub(n)
		if err != nil {
			return value.Value{}, err
		}
		return s.message(t.Message, sub, path, depth+1)
	}
	return value.Value{}, errors.InvalidData(errors.PhaseDecode, path, r.Offset(), fmt.Sprintf("unsupported kind %s", t.Kind))
}
