package frame

import (
	"bufio"
	stderrors "errors"
	"io"

	"github.com/wippyai/sgeproto/errors"
	"github.com/wippyai/sgeproto/wire"
)

// Writer writes frames to an io.Writer.
type Writer struct {
	w io.Writer
	p *Packer
}

// NewWriter returns a Writer using p, or the default packer when p is nil.
func NewWriter(w io.Writer, p *Packer) *Writer {
	if p == nil {
		p = defaultPacker
	}
	return &Writer{w: w, p: p}
}

// WriteFrame packs code and writes the frame.
func (w *Writer) WriteFrame(code []byte) error {
	if _, err := w.w.Write(w.p.Pack(code)); err != nil {
		return errors.Wrap(errors.PhasePack, errors.KindIO, err, "write frame")
	}
	return nil
}

// Reader reads frames written by a Writer.
type Reader struct {
	r *bufio.Reader
	p *Packer
}

// NewReader returns a Reader using p, or the default packer when p is nil.
func NewReader(r io.Reader, p *Packer) *Reader {
	if p == nil {
		p = defaultPacker
	}
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br, p: p}
}

// ReadFrame returns the code of the next frame. It returns io.EOF when the
// stream ends cleanly between frames.
func (r *Reader) ReadFrame() ([]byte, error) {
	head := make([]byte, fixedHeader, fixedHeader+2*wire.MaxVarintLen+checksumSize)
	if _, err := io.ReadFull(r.r, head); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, r.streamErr(err, "read frame header")
	}

	for i := 0; i < 2; i++ {
		v, err := wire.ReadUvarint(r.r)
		if err != nil {
			return nil, r.streamErr(err, "read frame length")
		}
		head = wire.AppendUvarint(head, v)
	}
	sum := make([]byte, checksumSize)
	if _, err := io.ReadFull(r.r, sum); err != nil {
		return nil, r.streamErr(err, "read frame checksum")
	}
	head = append(head, sum...)

	h, err := r.p.ParseHeader(head)
	if err != nil {
		return nil, err
	}
	framed := make([]byte, len(head)+h.PayloadLen)
	copy(framed, head)
	if _, err := io.ReadFull(r.r, framed[len(head):]); err != nil {
		return nil, r.streamErr(err, "read frame payload")
	}
	return r.p.Unpack(framed)
}

func (r *Reader) streamErr(err error, detail string) error {
	if err == io.EOF || stderrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(errors.PhaseUnpack, errors.KindFrameCorrupt, io.ErrUnexpectedEOF, detail)
	}
	if stderrors.Is(err, wire.ErrOverflow) {
		return errors.Wrap(errors.PhaseUnpack, errors.KindFrameCorrupt, err, detail)
	}
	return errors.Wrap(errors.PhaseUnpack, errors.KindIO, err, detail)
}
