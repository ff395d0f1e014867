// Package codec converts between the tagged binary value format and value trees.
//
// # Wire Format
//
// Every value is a one-byte tag followed by a payload whose layout the tag fixes:
//
//	Tag   | Variant  | Payload
//	------|----------|------------------------------------------------------
//	0x05  | UInt32   | 4 bytes, little-endian
//	0x06  | UInt64   | 8 bytes, little-endian
//	0x07  | Table    | pair count (4 bytes, big-endian), then 2*count values
//	0x08  | String   | 0x00, length byte, length bytes of UTF-8
//	0x0A  | Boolean  | 1 byte, true iff 0x01
//	0x0B  | UInt16   | 2 bytes, little-endian
//	0x0C  | Opaque   | 8 raw bytes
//	0x0D  | Opaque   | 12 raw bytes
//
// The root table is written without its tag: a root payload starts directly
// with the big-endian pair count.
//
// # Round Trip
//
// For every payload DecodeRoot accepts, EncodeRoot of the result reproduces
// the payload byte for byte. Pair order, opaque payloads and non-canonical
// Boolean bytes are all preserved. Tags without a decoding rule fail with
// *errs.UnsupportedTagError rather than being skipped, since their width is
// unknown.
package codec
