package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/wippyai/sgeproto/errors"
	"github.com/wippyai/sgeproto/wire"
)

const (
	magic0  byte = 'S'
	magic1  byte = 'G'
	Version byte = 0x01

	// FlagZeroPacked marks a payload compressed with zero-byte packing.
	FlagZeroPacked byte = 1 << 0

	knownFlags   = FlagZeroPacked
	fixedHeader  = 4 // magic, version, flags
	checksumSize = 8
)

// Limits bounds the sizes accepted when unpacking.
type Limits struct {
	MaxRawBytes     int // unpacked code length
	MaxPayloadBytes int // payload length as stored
}

// DefaultLimits returns limits suitable for in-memory messages.
func DefaultLimits() Limits {
	return Limits{
		MaxRawBytes:     64 << 20,
		MaxPayloadBytes: 64 << 20,
	}
}

// Validate checks that both limits are positive.
func (l Limits) Validate() error {
	if l.MaxRawBytes <= 0 || l.MaxPayloadBytes <= 0 {
		return errors.InvalidInput(errors.PhaseUnpack,
			fmt.Sprintf("frame limits must be positive, got raw=%d payload=%d", l.MaxRawBytes, l.MaxPayloadBytes))
	}
	return nil
}

// Header describes one frame.
type Header struct {
	Flags      byte
	RawLen     int
	PayloadLen int
	Checksum   uint64
	Size       int // encoded header length
}

// Packed reports whether the payload is zero-packed.
func (h Header) Packed() bool {
	return h.Flags&FlagZeroPacked != 0
}

// Packer frames and unframes code. The zero value is not usable; use
// NewPacker. A Packer is safe for concurrent use.
type Packer struct {
	Limits          Limits
	DisableZeroPack bool
}

func NewPacker() *Packer {
	return &Packer{Limits: DefaultLimits()}
}

var defaultPacker = NewPacker()

// Pack frames b with the default packer.
func Pack(b []byte) []byte {
	return defaultPacker.Pack(b)
}

// Unpack reverses Pack with the default packer.
func Unpack(framed []byte) ([]byte, error) {
	return defaultPacker.Unpack(framed)
}

// Next reads the first frame of buf with the default packer.
func Next(buf []byte) ([]byte, int, error) {
	return defaultPacker.Next(buf)
}

// Pack wraps b in a frame. It never fails.
func (p *Packer) Pack(b []byte) []byte {
	flags := byte(0)
	payloadLen := len(b)
	if !p.DisableZeroPack {
		if n := zeroPackedSize(b); n < len(b) {
			flags |= FlagZeroPacked
			payloadLen = n
		}
	}

	size := fixedHeader + wire.SizeUvarint(uint64(len(b))) + wire.SizeUvarint(uint64(payloadLen)) + checksumSize + payloadLen
	out := make([]byte, 0, size)
	out = append(out, magic0, magic1, Version, flags)
	out = wire.AppendUvarint(out, uint64(len(b)))
	out = wire.AppendUvarint(out, uint64(payloadLen))
	out = binary.LittleEndian.AppendUint64(out, xxhash.Sum64(b))
	if flags&FlagZeroPacked != 0 {
		out = appendZeroPacked(out, b)
	} else {
		out = append(out, b...)
	}
	return out
}

// Unpack returns the code held by framed, which must contain exactly one frame.
func (p *Packer) Unpack(framed []byte) ([]byte, error) {
	raw, n, err := p.Next(framed)
	if err != nil {
		return nil, err
	}
	if n != len(framed) {
		return nil, errors.FrameCorrupt(n, "%d bytes after frame", len(framed)-n)
	}
	return raw, nil
}

// Next unpacks the frame at the start of buf and returns the code and the
// number of bytes the frame occupied.
func (p *Packer) Next(buf []byte) ([]byte, int, error) {
	h, err := p.ParseHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	if avail := len(buf) - h.Size; h.PayloadLen > avail {
		return nil, 0, errors.FrameCorrupt(h.Size, "declared payload length %d, available %d", h.PayloadLen, avail)
	}
	payload := buf[h.Size : h.Size+h.PayloadLen]

	var raw []byte
	if h.Packed() {
		raw, err = unpackZeros(payload, h.RawLen, h.Size)
		if err != nil {
			return nil, 0, err
		}
	} else {
		raw = append(make([]byte, 0, h.RawLen), payload...)
	}

	if sum := xxhash.Sum64(raw); sum != h.Checksum {
		return nil, 0, errors.FrameCorrupt(h.Size-checksumSize, "checksum %016x, want %016x", sum, h.Checksum)
	}
	return raw, h.Size + h.PayloadLen, nil
}

// ParseHeader decodes and validates the frame header at the start of buf.
func (p *Packer) ParseHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < fixedHeader {
		return h, errors.FrameCorrupt(0, "frame header needs %d bytes, have %d", fixedHeader, len(buf))
	}
	if buf[0] != magic0 || buf[1] != magic1 {
		return h, errors.FrameCorrupt(0, "bad magic %02x%02x", buf[0], buf[1])
	}
	if buf[2] != Version {
		return h, errors.FrameCorrupt(2, "unsupported frame version %d", buf[2])
	}
	h.Flags = buf[3]
	if h.Flags&^knownFlags != 0 {
		return h, errors.FrameCorrupt(3, "unknown flags %08b", h.Flags)
	}

	r := wire.NewReader(buf[fixedHeader:], errors.PhaseUnpack)
	rawLen, err := r.ReadUvarint()
	if err != nil {
		return h, errors.Wrap(errors.PhaseUnpack, errors.KindFrameCorrupt, err, "read raw length")
	}
	payloadLen, err := r.ReadUvarint()
	if err != nil {
		return h, errors.Wrap(errors.PhaseUnpack, errors.KindFrameCorrupt, err, "read payload length")
	}
	sum, err := r.ReadFixed64()
	if err != nil {
		return h, errors.Wrap(errors.PhaseUnpack, errors.KindFrameCorrupt, err, "read checksum")
	}
	h.Size = fixedHeader + r.Pos()

	limits := p.Limits
	if rawLen > uint64(limits.MaxRawBytes) {
		return h, errors.FrameCorrupt(fixedHeader, "raw length %d exceeds limit %d", rawLen, limits.MaxRawBytes)
	}
	if payloadLen > uint64(limits.MaxPayloadBytes) {
		return h, errors.FrameCorrupt(fixedHeader, "payload length %d exceeds limit %d", payloadLen, limits.MaxPayloadBytes)
	}
	if h.Flags&FlagZeroPacked == 0 && rawLen != payloadLen {
		return h, errors.FrameCorrupt(fixedHeader, "raw length %d differs from unpacked payload length %d", rawLen, payloadLen)
	}
	if h.Flags&FlagZeroPacked != 0 && rawLen > payloadLen*unitSize {
		return h, errors.FrameCorrupt(fixedHeader, "raw length %d cannot come from %d packed bytes", rawLen, payloadLen)
	}

	h.RawLen = int(rawLen)
	h.PayloadLen = int(payloadLen)
	h.Checksum = sum
	return h, nil
}
