package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/internal/options"
	"github.com/klauspost/compress/flate"
)

// DefaultDeflateLevel is the level NewDeflateCodec uses without options.
const DefaultDeflateLevel = flate.DefaultCompression

// DeflateCodec produces and reads raw DEFLATE streams (RFC 1951), the format
// of archive entries stored with compression method 8.
type DeflateCodec struct {
	level int
}

var (
	_ Codec             = (*DeflateCodec)(nil)
	_ SizedDecompressor = (*DeflateCodec)(nil)
)

// DeflateOption configures a DeflateCodec.
type DeflateOption = options.Option[*DeflateCodec]

// WithDeflateLevel sets the compression level, from flate.HuffmanOnly (-2)
// to flate.BestCompression (9). flate.DefaultCompression (-1) is the default.
func WithDeflateLevel(level int) DeflateOption {
	return options.New(func(c *DeflateCodec) error {
		if level < flate.HuffmanOnly || level > flate.BestCompression {
			return fmt.Errorf("invalid deflate level %d", level)
		}
		c.level = level

		return nil
	})
}

// NewDeflateCodec creates a DEFLATE codec.
func NewDeflateCodec(opts ...DeflateOption) (*DeflateCodec, error) {
	c := &DeflateCodec{level: DefaultDeflateLevel}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// deflateWriterPools holds one writer pool per level, indexed by level+2.
var deflateWriterPools [flate.BestCompression + 3]sync.Pool

// deflateReaderPool pools decompressors; they are reset onto each new input.
var deflateReaderPool = sync.Pool{
	New: func() any {
		return flate.NewReader(bytes.NewReader(nil))
	},
}

func getDeflateWriter(level int, w io.Writer) (*flate.Writer, error) {
	if fw, ok := deflateWriterPools[level+2].Get().(*flate.Writer); ok {
		fw.Reset(w)
		return fw, nil
	}

	return flate.NewWriter(w, level)
}

// Compress compresses data into a single raw DEFLATE stream.
func (c *DeflateCodec) Compress(data []byte) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data)/2 + 64)

	fw, err := getDeflateWriter(c.level, &out)
	if err != nil {
		return nil, fmt.Errorf("deflate writer: %w", err)
	}
	defer deflateWriterPools[c.level+2].Put(fw)

	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("deflate compression failed: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("deflate compression failed: %w", err)
	}

	return out.Bytes(), nil
}

// Decompress inflates a raw DEFLATE stream of unknown original size.
func (c *DeflateCodec) Decompress(data []byte) ([]byte, error) {
	return c.inflate(data, -1)
}

// DecompressSize inflates data and requires exactly expected output bytes.
// Reading stops one byte past expected, so oversized streams are rejected
// without inflating them completely.
func (c *DeflateCodec) DecompressSize(data []byte, expected int) ([]byte, error) {
	if expected < 0 {
		return nil, fmt.Errorf("%w: negative expected size %d", errs.ErrDecompressionSizeMismatch, expected)
	}

	out, err := c.inflate(data, expected)
	if err != nil {
		return nil, err
	}
	if len(out) != expected {
		return nil, fmt.Errorf("%w: inflated %d bytes, declared %d", errs.ErrDecompressionSizeMismatch, len(out), expected)
	}

	return out, nil
}

func (c *DeflateCodec) inflate(data []byte, expected int) ([]byte, error) {
	fr, _ := deflateReaderPool.Get().(io.ReadCloser)
	defer deflateReaderPool.Put(fr)

	if err := fr.(flate.Resetter).Reset(bytes.NewReader(data), nil); err != nil {
		return nil, fmt.Errorf("deflate reset: %w", err)
	}

	var src io.Reader = fr
	var out bytes.Buffer
	if expected >= 0 {
		src = io.LimitReader(fr, int64(expected)+1)
		out.Grow(expected)
	}

	if _, err := out.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("deflate decompression failed: %w", err)
	}

	return out.Bytes(), nil
}
