package format

import (
	"fmt"
	"strings"

	"github.com/arloliu/pksave/errs"
)

type (
	// Tag is the one-byte type marker that precedes every encoded value.
	Tag uint8
	// Method is the compression method field of an archive entry.
	Method uint16
	// CompressionType selects the codec used for backup files.
	CompressionType uint8
)

const (
	TagUInt32   Tag = 0x05 // TagUInt32 marks a little-endian uint32.
	TagUInt64   Tag = 0x06 // TagUInt64 marks a little-endian uint64.
	TagTable    Tag = 0x07 // TagTable marks a table; omitted for the root table.
	TagString   Tag = 0x08 // TagString marks a reserved zero byte, a length byte and UTF-8 bytes.
	TagBoolean  Tag = 0x0A // TagBoolean marks a one-byte flag.
	TagUInt16   Tag = 0x0B // TagUInt16 marks a little-endian uint16.
	TagOpaque8  Tag = 0x0C // TagOpaque8 marks an uninterpreted 8-byte payload.
	TagOpaque12 Tag = 0x0D // TagOpaque12 marks an uninterpreted 12-byte payload.

	MethodStored  Method = 0 // MethodStored is an uncompressed entry.
	MethodDeflate Method = 8 // MethodDeflate is a raw DEFLATE entry.

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// OpaqueWidth returns the fixed payload width of an opaque tag.
// The second result is false for tags that are not opaque.
func OpaqueWidth(t Tag) (int, bool) {
	switch t {
	case TagOpaque8:
		return 8, true
	case TagOpaque12:
		return 12, true
	default:
		return 0, false
	}
}

func (t Tag) String() string {
	switch t {
	case TagUInt32:
		return "UInt32"
	case TagUInt64:
		return "UInt64"
	case TagTable:
		return "Table"
	case TagString:
		return "String"
	case TagBoolean:
		return "Boolean"
	case TagUInt16:
		return "UInt16"
	case TagOpaque8, TagOpaque12:
		return fmt.Sprintf("Opaque(0x%02X)", uint8(t))
	default:
		return fmt.Sprintf("Tag(0x%02X)", uint8(t))
	}
}

func (m Method) String() string {
	switch m {
	case MethodStored:
		return "Stored"
	case MethodDeflate:
		return "Deflate"
	default:
		return fmt.Sprintf("Method(%d)", uint16(m))
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompressionType maps a case-insensitive name ("none", "zstd", "s2", "lz4")
// to its CompressionType.
func ParseCompressionType(name string) (CompressionType, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: compression type %q", errs.ErrUnknownName, name)
	}
}
