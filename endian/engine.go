// Package endian provides the byte order engines used by the pksave formats.
//
// The formats handled by pksave mix byte orders:
//
//   - Archive headers and scalar value payloads (UInt16/UInt32/UInt64) are little-endian.
//   - Envelope header fields and table pair counts are big-endian.
//
// Every reader and writer takes an EndianEngine instead of hardcoding
// binary.LittleEndian or binary.BigEndian, so a field's byte order is decided
// once, next to the field's definition.
//
//	le := endian.GetLittleEndianEngine()
//	buf = le.AppendUint32(buf, value)
//
// # Thread Safety
//
// The returned EndianEngine instances are immutable and stateless.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

