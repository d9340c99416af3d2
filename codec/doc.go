// Package codec encodes Values to the sgeproto binary layout and back.
//
// # Layout
//
// An encoded message ("code") is
//
//	version(1) uvarint(message id) uvarint(body length) body
//
// The body holds the present fields in declaration order, each as
//
//	uvarint(index<<3 | wire type) payload
//
// Wire types:
//
//	0 varint   bool
//	1 fixed64  int64, uint64, double (little-endian)
//	2 bytes    string, bytes, nested message: uvarint(len) data
//	3 list     repeated fields: uvarint(byte len) uvarint(count) elements
//	5 fixed32  int32, uint32, float (little-endian)
//
// List elements carry no tag: fixed-width kinds are written raw, bool as a
// single byte, and string, bytes and messages with a uvarint length.
// Nested message payloads are bodies without the header.
//
// # Encoding
//
// Encoder.Encode validates the whole value first and records the size of
// every length-prefixed container, then writes into a buffer of the exact
// size. Any type mismatch, unknown field or missing required field is
// reported before a byte is produced.
//
// # Decoding
//
// Decoder.Decode never reads past the buffer: every declared length is
// checked against the remaining bytes and reported as a truncated buffer
// with its offset. Unknown field tags are skipped unless Strict is set.
package codec
