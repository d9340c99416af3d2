// Package frame wraps encoded messages for storage and transport.
//
// A frame is
//
//	"SG" version(1) flags(1) uvarint(raw length) uvarint(payload length) xxhash64(raw, 8 bytes LE) payload
//
// When zero-byte packing makes the payload smaller, Pack stores it packed
// and sets FlagZeroPacked. The fixed-width numeric fields of encoded code
// are often mostly zero, which is where packing pays off.
//
// Unpack(Pack(b)) returns b for every b, including the empty slice. Any
// mismatch between declared and available lengths, a packed payload that
// does not expand to exactly the raw length, or a checksum mismatch is a
// frame_corrupt error.
//
// Writer and Reader carry a sequence of frames over a byte stream; Next
// splits frames from a buffer holding several of them.
package frame
