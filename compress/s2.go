package compress

import (
	"fmt"

	"github.com/arloliu/pksave/errs"
	"github.com/klauspost/compress/s2"
)

// S2Compressor is the S2 block codec, a fast choice for backups.
//
// An empty save compresses to an empty block and decompresses back to nil.
type S2Compressor struct{}

var (
	_ Codec             = (*S2Compressor)(nil)
	_ SizedDecompressor = (*S2Compressor)(nil)
)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses the input data using S2 compression.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decompresses the input data using S2 decompression.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}

// DecompressSize checks the block's own length prefix against the size
// recorded in the backup header before allocating the output.
func (c S2Compressor) DecompressSize(data []byte, expected int) ([]byte, error) {
	if len(data) == 0 {
		if expected != 0 {
			return nil, fmt.Errorf("%w: empty s2 block, declared %d", errs.ErrDecompressionSizeMismatch, expected)
		}

		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}
	if n != expected {
		return nil, fmt.Errorf("%w: s2 block holds %d bytes, declared %d", errs.ErrDecompressionSizeMismatch, n, expected)
	}

	return s2.Decode(make([]byte, n), data)
}
