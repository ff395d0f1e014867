package archive

import (
	"fmt"
	"math"

	"github.com/arloliu/pksave/checksum"
	"github.com/arloliu/pksave/compress"
	"github.com/arloliu/pksave/endian"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/internal/pool"
)

// Rebuild produces a single-entry container named EntryName holding payload,
// deflated with comp.
//
// The layout is fixed: local header, compressed payload, central directory,
// end record. Only the CRC-32 of payload, the two sizes and the directory
// offset differ between calls.
func Rebuild(payload []byte, comp compress.Compressor) ([]byte, error) {
	if uint64(len(payload)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: archive payload is %d bytes", errs.ErrValueTooLarge, len(payload))
	}

	compressed, err := comp.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("archive compress: %w", err)
	}

	dirOffset := uint64(len(headTemplate)) + uint64(len(compressed))
	if dirOffset > math.MaxUint32 {
		return nil, fmt.Errorf("%w: compressed archive entry is %d bytes", errs.ErrValueTooLarge, len(compressed))
	}

	values := [...]uint32{
		fieldCRC:              checksum.IEEE(payload),
		fieldCompressedSize:   uint32(len(compressed)), //nolint:gosec
		fieldUncompressedSize: uint32(len(payload)),    //nolint:gosec
		fieldDirectoryOffset:  uint32(dirOffset),       //nolint:gosec
	}

	bb := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(bb)
	bb.Grow(len(headTemplate) + len(compressed) + len(tailTemplate))

	head := bb.Len()
	bb.MustWrite(headTemplate[:])
	bb.MustWrite(compressed)
	tail := bb.Len()
	bb.MustWrite(tailTemplate[:])

	applyPatches(bb, head, headPatches[:], values[:])
	applyPatches(bb, tail, tailPatches[:], values[:])

	return bb.Clone(), nil
}

func applyPatches(bb *pool.ByteBuffer, base int, patches []patch, values []uint32) {
	le := endian.GetLittleEndianEngine()
	var word [4]byte
	for _, p := range patches {
		le.PutUint32(word[:], values[p.field])
		bb.Patch(base+p.offset, word[:])
	}
}
