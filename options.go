package pksave

import (
	"fmt"

	"github.com/arloliu/pksave/checksum"
	"github.com/arloliu/pksave/compress"
	"github.com/arloliu/pksave/envelope"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/internal/options"
)

// Option configures Open and Build.
type Option = options.Option[*config]

type config struct {
	magic      [4]byte
	hasMagic   bool
	sum        checksum.Func
	level      int
	skipVerify bool
}

// WithEnvelopeMagic sets the four-byte marker that starts every envelope.
// Required.
func WithEnvelopeMagic(magic [4]byte) Option {
	return options.NoError(func(c *config) {
		c.magic = magic
		c.hasMagic = true
	})
}

// WithEnvelopeChecksum sets the checksum stored in and verified against the
// envelope header. Required.
func WithEnvelopeChecksum(sum checksum.Func) Option {
	return options.New(func(c *config) error {
		if sum == nil {
			return fmt.Errorf("%w: nil envelope checksum", errs.ErrMissingOption)
		}
		c.sum = sum

		return nil
	})
}

// WithCompressionLevel sets the DEFLATE level used when rebuilding the
// container, from -2 (Huffman only) to 9. Default is
// compress.DefaultDeflateLevel.
func WithCompressionLevel(level int) Option {
	return options.NoError(func(c *config) {
		c.level = level
	})
}

// WithSkipEnvelopeVerify opens envelopes without checking their checksum.
// Rebuilt envelopes still carry a freshly computed checksum.
func WithSkipEnvelopeVerify() Option {
	return options.NoError(func(c *config) {
		c.skipVerify = true
	})
}

// pipeline holds the collaborators built from a config.
type pipeline struct {
	framer  *envelope.Framer
	deflate *compress.DeflateCodec
}

func newPipeline(opts []Option) (*pipeline, error) {
	cfg := &config{level: compress.DefaultDeflateLevel}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if !cfg.hasMagic {
		return nil, fmt.Errorf("%w: envelope magic", errs.ErrMissingOption)
	}
	if cfg.sum == nil {
		return nil, fmt.Errorf("%w: envelope checksum", errs.ErrMissingOption)
	}

	var framerOpts []envelope.Option
	if cfg.skipVerify {
		framerOpts = append(framerOpts, envelope.WithSkipChecksumVerify())
	}
	framer, err := envelope.New(cfg.magic, cfg.sum, framerOpts...)
	if err != nil {
		return nil, err
	}

	deflate, err := compress.NewDeflateCodec(compress.WithDeflateLevel(cfg.level))
	if err != nil {
		return nil, err
	}

	return &pipeline{framer: framer, deflate: deflate}, nil
}
