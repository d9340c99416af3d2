package frame

import (
	"github.com/wippyai/sgeproto/errors"
)

// Zero-byte packing: every group of up to 8 input bytes becomes one mask
// byte, bit i set when byte i is non-zero, followed by the non-zero bytes.
// A short final group is treated as padded with zeros.

const unitSize = 8

func zeroPackedSize(src []byte) int {
	n := (len(src) + unitSize - 1) / unitSize
	for _, c := range src {
		if c != 0 {
			n++
		}
	}
	return n
}

func appendZeroPacked(dst, src []byte) []byte {
	for i := 0; i < len(src); i += unitSize {
		group := src[i:min(i+unitSize, len(src))]
		maskAt := len(dst)
		dst = append(dst, 0)
		var mask byte
		for j, c := range group {
			if c != 0 {
				mask |= 1 << j
				dst = append(dst, c)
			}
		}
		dst[maskAt] = mask
	}
	return dst
}

// unpackZeros expands payload into exactly rawLen bytes. base is the offset
// of payload within the frame, used for error reporting.
func unpackZeros(payload []byte, rawLen, base int) ([]byte, error) {
	out := make([]byte, rawLen)
	p := 0
	for i := 0; i < rawLen; i += unitSize {
		if p >= len(payload) {
			return nil, errors.FrameCorrupt(base+p, "packed payload ends at raw byte %d of %d", i, rawLen)
		}
		mask := payload[p]
		p++
		n := min(unitSize, rawLen-i)
		if n < unitSize && mask>>n != 0 {
			return nil, errors.FrameCorrupt(base+p-1, "mask %08b marks bytes past raw length", mask)
		}
		for j := 0; j < n; j++ {
			if mask&(1<<j) == 0 {
				continue
			}
			if p >= len(payload) {
				return nil, errors.FrameCorrupt(base+p, "packed payload ends at raw byte %d of %d", i+j, rawLen)
			}
			out[i+j] = payload[p]
			p++
		}
	}
	if p != len(payload) {
		return nil, errors.FrameCorrupt(base+p, "%d packed bytes left after %d raw bytes", len(payload)-p, rawLen)
	}
	return out, nil
}
