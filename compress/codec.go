package compress

import (
	"fmt"

	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
)

// Compressor compresses a complete buffer.
type Compressor interface {
	// Compress compresses data and returns a newly allocated result.
	// The input slice is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
type Decompressor interface {
	// Decompress returns the original data. It fails if data is corrupted or
	// was produced by a different algorithm.
	Decompress(data []byte) ([]byte, error)
}

// SizedDecompressor decompresses data whose original size is known up front,
// as it is for archive entries.
type SizedDecompressor interface {
	// DecompressSize returns the original data and fails with
	// errs.ErrDecompressionSizeMismatch unless it is exactly expected bytes long.
	DecompressSize(data []byte, expected int) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// DecompressSize decompresses data with d and checks the result length.
// Decompressors implementing SizedDecompressor are used directly so they can
// stop reading as soon as the size is exceeded.
func DecompressSize(d Decompressor, data []byte, expected int) ([]byte, error) {
	if sd, ok := d.(SizedDecompressor); ok {
		return sd.DecompressSize(data, expected)
	}

	out, err := d.Decompress(data)
	if err != nil {
		return nil, err
	}
	if len(out) != expected {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", errs.ErrDecompressionSizeMismatch, len(out), expected)
	}

	return out, nil
}

// CreateCodec creates a new Codec for the given backup compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, or LZ4)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: Invalid compression type error
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("%w: invalid %s compression: %s", errs.ErrUnsupportedCompression, target, compressionType)
	}
}
