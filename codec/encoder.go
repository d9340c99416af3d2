package codec

import (
	"math"
	"unicode/utf8"

	"github.com/wippyai/sgeproto/errors"
	"github.com/wippyai/sgeproto/schema"
	"github.com/wippyai/sgeproto/value"
	"github.com/wippyai/sgeproto/wire"
)

// Encoder turns Records into code for message types of one registry.
// It is stateless and safe for concurrent use.
type Encoder struct {
	reg *schema.Registry
	// MaxDepth bounds message nesting the same way Decoder.MaxDepth does,
	// so every accepted value can be decoded again.
	MaxDepth int
}

func NewEncoder(reg *schema.Registry) *Encoder {
	return &Encoder{reg: reg, MaxDepth: DefaultMaxDepth}
}

// Encode serializes v as the message type typeName.
//
// The value is validated in full before any output is produced, so a
// failed call never yields partial bytes.
func (e *Encoder) Encode(typeName string, v value.Value) ([]byte, error) {
	m, p, body, err := e.prepare(typeName, v)
	if err != nil {
		return nil, err
	}
	w := &writer{buf: wire.NewBuffer(headerSize(m.ID, body) + body), sizes: p.sizes}
	w.buf.AppendByte(Version)
	w.buf.WriteUvarint(uint64(m.ID))
	w.buf.WriteUvarint(uint64(body))
	w.message(m, v)
	return w.buf.Bytes, nil
}

// Size returns the encoded length of v without producing bytes.
func (e *Encoder) Size(typeName string, v value.Value) (int, error) {
	m, _, body, err := e.prepare(typeName, v)
	if err != nil {
		return 0, err
	}
	return headerSize(m.ID, body) + body, nil
}

// prepare validates v and returns the message type, the size plan and the body length.
func (e *Encoder) prepare(typeName string, v value.Value) (*schema.MessageDef, *plan, int, error) {
	if e.reg == nil {
		return nil, nil, 0, errors.MissingSchema(errors.PhaseEncode)
	}
	m, ok := e.reg.Lookup(typeName)
	if !ok {
		return nil, nil, 0, errors.UnknownMessage(errors.PhaseEncode, typeName)
	}
	if v.Kind() != value.KindRecord {
		return nil, nil, 0, errors.TypeMismatch(errors.PhaseEncode, typeName, nil, typeName, v.Kind().String())
	}
	p := &plan{message: typeName, maxDepth: e.maxDepth()}
	body, err := p.messageSize(m, v, nil, 0)
	if err != nil {
		return nil, nil, 0, err
	}
	return m, p, body, nil
}

func (e *Encoder) maxDepth() int {
	if e.MaxDepth > 0 {
		return e.MaxDepth
	}
	return DefaultMaxDepth
}

// headerSize is the length of the version byte, message id and body length.
func headerSize(id uint32, body int) int {
	return 1 + wire.SizeUvarint(uint64(id)) + wire.SizeUvarint(uint64(body))
}

// plan validates a value tree and records the payload size of every
// length-prefixed container in visiting order.
type plan struct {
	message  string
	maxDepth int
	sizes    []int
}

func (p *plan) reserve() int {
	p.sizes = append(p.sizes, 0)
	return len(p.sizes) - 1
}

func (p *plan) messageSize(m *schema.MessageDef, rec value.Value, path []string, depth int) (int, error) {
	if depth > p.maxDepth {
		return 0, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Message(p.message).
			Path(path...).
			Detail("nesting deeper than %d", p.maxDepth).
			Build()
	}

	fields, _ := rec.Fields()
	for _, name := range rec.Keys() {
		if _, ok := m.Field(name); !ok {
			return 0, errors.FieldUnknown(errors.PhaseEncode, p.message, appendPath(path, name), name)
		}
	}

	size := 0
	for _, f := range m.Fields {
		v, ok := fields[f.Name]
		fpath := appendPath(path, f.Name)
		if !ok || v.IsNull() {
			if f.Required() {
				return 0, errors.FieldMissing(errors.PhaseEncode, p.message, fpath, f.Name)
			}
			continue
		}
		n, err := p.fieldSize(f, v, fpath, depth)
		if err != nil {
			return 0, err
		}
		size += wire.SizeUvarint(wire.MakeTag(f.Index, f.WireType())) + n
	}
	return size, nil
}

func (p *plan) fieldSize(f *schema.FieldDef, v value.Value, path []string, depth int) (int, error) {
	if !f.Repeated() {
		return p.elementSize(f.Type, v, path, depth)
	}
	items, ok := v.Items()
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseEncode, p.message, path, f.TypeString(), v.Kind().String())
	}
	slot := p.reserve()
	payload := wire.SizeUvarint(uint64(len(items)))
	for i, item := range items {
		n, err := p.elementSize(f.Type, item, appendPath(path, errors.Index(i)), depth)
		if err != nil {
			return 0, err
		}
		payload += n
	}
	p.sizes[slot] = payload
	return wire.SizeUvarint(uint64(payload)) + payload, nil
}

// elementSize sizes one element of a field declared in a message at depth.
func (p *plan) elementSize(t schema.FieldType, v value.Value, path []string, depth int) (int, error) {
	switch t.Kind {
	case schema.KindMessage:
		if v.Kind() != value.KindRecord {
			return 0, errors.TypeMismatch(errors.PhaseEncode, p.message, path, t.String(), v.Kind().String())
		}
		slot := p.reserve()
		body, err := p.messageSize(t.Message, v, path, depth+1)
		if err != nil {
			return 0, err
		}
		p.sizes[slot] = body
		return wire.SizeUvarint(uint64(body)) + body, nil
	case schema.KindString:
		s, ok := v.AsStr()
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseEncode, p.message, path, t.String(), v.Kind().String())
		}
		if !utf8.ValidString(s) {
			err := errors.TypeMismatch(errors.PhaseEncode, p.message, path, t.String(), v.Kind().String())
			err.Detail = "invalid UTF-8"
			return 0, err
		}
		return wire.SizeUvarint(uint64(len(s))) + len(s), nil
	case schema.KindBytes:
		n, ok := bytesLen(v)
		if !ok {
			return 0, errors.TypeMismatch(errors.PhaseEncode, p.message, path, t.String(), v.Kind().String())
		}
		return wire.SizeUvarint(uint64(n)) + n, nil
	}

	if _, err := scalarBits(t.Kind, v); err != nil {
		err.Message = p.message
		err.Path = path
		err.Expected = t.String()
		return 0, err
	}
	return t.Kind.FixedSize(), nil
}

func bytesLen(v value.Value) (int, bool) {
	switch v.Kind() {
	case value.KindBytes, value.KindStr:
		return v.Len(), true
	}
	return 0, false
}

// scalarBits converts a numeric or bool value to its fixed-width wire bits.
// Returned errors lack message and path context.
func scalarBits(k schema.Kind, v value.Value) (uint64, *errors.Error) {
	mismatch := func() *errors.Error {
		return errors.TypeMismatch(errors.PhaseEncode, "", nil, k.String(), v.Kind().String())
	}
	overflow := func(x any) *errors.Error {
		return errors.Overflow(errors.PhaseEncode, "", nil, x, k.String())
	}

	switch k {
	case schema.KindBool:
		b, ok := v.AsBool()
		if !ok {
			return 0, mismatch()
		}
		if b {
			return 1, nil
		}
		return 0, nil

	case schema.KindInt32, schema.KindInt64:
		var i int64
		switch v.Kind() {
		case value.KindInt:
			i, _ = v.AsInt()
		case value.KindUInt:
			u, _ := v.AsUInt()
			if u > math.MaxInt64 {
				return 0, overflow(u)
			}
			i = int64(u)
		default:
			return 0, mismatch()
		}
		if k == schema.KindInt32 {
			if i < math.MinInt32 || i > math.MaxInt32 {
				return 0, overflow(i)
			}
			return uint64(uint32(int32(i))), nil
		}
		return uint64(i), nil

	case schema.KindUInt32, schema.KindUInt64:
		var u uint64
		switch v.Kind() {
		case value.KindUInt:
			u, _ = v.AsUInt()
		case value.KindInt:
			i, _ := v.AsInt()
			if i < 0 {
				return 0, overflow(i)
			}
			u = uint64(i)
		default:
			return 0, mismatch()
		}
		if k == schema.KindUInt32 && u > math.MaxUint32 {
			return 0, overflow(u)
		}
		return u, nil

	case schema.KindFloat, schema.KindDouble:
		var f float64
		switch v.Kind() {
		case value.KindDouble:
			f, _ = v.AsDouble()
		case value.KindInt:
			i, _ := v.AsInt()
			f = float64(i)
		case value.KindUInt:
			u, _ := v.AsUInt()
			f = float64(u)
		default:
			return 0, mismatch()
		}
		if k == schema.KindDouble {
			return math.Float64bits(f), nil
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return 0, overflow(f)
		}
		return uint64(math.Float32bits(float32(f))), nil
	}
	return 0, mismatch()
}

// writer replays a plan into a buffer sized by it.
type writer struct {
	buf   *wire.Buffer
	sizes []int
	next  int
}

func (w *writer) size() int {
	n := w.sizes[w.next]
	w.next++
	return n
}

func (w *writer) message(m *schema.MessageDef, rec value.Value) {
	fields, _ := rec.Fields()
	for _, f := range m.Fields {
		v, ok := fields[f.Name]
		if !ok || v.IsNull() {
			continue
		}
		w.buf.WriteTag(f.Index, f.WireType())
		if !f.Repeated() {
			w.element(f.Type, v)
			continue
		}
		items, _ := v.Items()
		w.buf.WriteUvarint(uint64(w.size()))
		w.buf.WriteUvarint(uint64(len(items)))
		for _, item := range items {
			w.element(f.Type, item)
		}
	}
}

func (w *writer) element(t schema.FieldType, v value.Value) {
	switch t.Kind {
	case schema.KindMessage:
		w.buf.WriteUvarint(uint64(w.size()))
		w.message(t.Message, v)
	case schema.KindString:
		s, _ := v.AsStr()
		w.buf.WriteString(s)
	case schema.KindBytes:
		if s, ok := v.AsStr(); ok {
			w.buf.WriteString(s)
		} else {
			b, _ := v.AsBytes()
			w.buf.WriteLenBytes(b)
		}
	case schema.KindBool:
		bits, _ := scalarBits(t.Kind, v)
		w.buf.WriteUvarint(bits)
	default:
		bits, _ := scalarBits(t.Kind, v)
		if t.Kind.FixedSize() == 4 {
			w.buf.WriteFixed32(uint32(bits))
		} else {
			w.buf.WriteFixed64(bits)
		}
	}
}
