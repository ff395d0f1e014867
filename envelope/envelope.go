// Package envelope frames an encoded value payload with a magic marker, a
// checksum, a record count and a payload length.
//
//	Bytes  | Field     | Description
//	-------|-----------|----------------------------------------
//	0-3    | Magic     | fixed marker, configured by the caller
//	4-7    | Checksum  | checksum of the payload, big-endian
//	8-11   | Count     | number of root tables, big-endian
//	12-15  | Length    | payload length in bytes, big-endian
//	16-    | Payload   | Length bytes
//
// The checksum algorithm is injected (see package checksum); the envelope
// never assumes one.
package envelope

import (
	"bytes"
	"fmt"

	"github.com/arloliu/pksave/checksum"
	"github.com/arloliu/pksave/cursor"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/internal/options"
	"github.com/arloliu/pksave/internal/pool"
)

// SupportedCount is the only record count Unwrap accepts.
const SupportedCount = 1

// Envelope is an unwrapped envelope. Payload aliases the input of Unwrap.
type Envelope struct {
	Header  Header
	Payload []byte
}

// Framer wraps and unwraps envelopes with a fixed magic and checksum.
//
// A Framer holds no mutable state after construction and is safe for
// concurrent use.
type Framer struct {
	magic  [4]byte
	sum    checksum.Func
	verify bool
}

// Option configures a Framer.
type Option = options.Option[*Framer]

// WithSkipChecksumVerify makes Unwrap accept payloads whose checksum does not
// match. Wrap still computes the checksum.
func WithSkipChecksumVerify() Option {
	return options.NoError(func(f *Framer) {
		f.verify = false
	})
}

// New creates a Framer for the given magic marker and checksum function.
func New(magic [4]byte, sum checksum.Func, opts ...Option) (*Framer, error) {
	if sum == nil {
		return nil, fmt.Errorf("%w: envelope checksum function", errs.ErrMissingOption)
	}

	f := &Framer{
		magic:  magic,
		sum:    sum,
		verify: true,
	}
	if err := options.Apply(f, opts...); err != nil {
		return nil, err
	}

	return f, nil
}

// Unwrap opens data and requires it to hold exactly one root table.
//
// Checks run in this order: magic (ErrBadMagic), declared length against the
// available bytes (ErrOutOfData), checksum (ErrChecksumMismatch), record
// count (ErrRecordCountUnsupported). Bytes past the declared length are
// ignored.
func (f *Framer) Unwrap(data []byte) (Envelope, error) {
	env, err := f.Open(data)
	if err != nil {
		return env, err
	}

	if env.Header.Count != SupportedCount {
		return Envelope{}, fmt.Errorf("%w: %d root tables", errs.ErrRecordCountUnsupported, env.Header.Count)
	}

	return env, nil
}

// Open validates everything Unwrap does except the record count.
func (f *Framer) Open(data []byte) (Envelope, error) {
	var env Envelope

	c := cursor.New(data)
	marker, err := c.PeekFixed(len(f.magic))
	if err != nil {
		return env, fmt.Errorf("envelope marker: %w", err)
	}
	if !bytes.Equal(marker, f.magic[:]) {
		return env, fmt.Errorf("%w: envelope marker % X, want % X", errs.ErrBadMagic, marker, f.magic)
	}

	raw, err := c.ReadFixed(HeaderSize)
	if err != nil {
		return env, fmt.Errorf("envelope header: %w", err)
	}
	if err := env.Header.Parse(raw); err != nil {
		return env, err
	}

	payload, err := c.ReadFixed(int(env.Header.Length))
	if err != nil {
		return env, fmt.Errorf("envelope payload: %w", err)
	}

	// Bytes after the declared payload are padding and ignored.
	if f.verify && !checksum.Verify(f.sum, payload, env.Header.Checksum) {
		return env, fmt.Errorf("%w: envelope declares 0x%08X, payload sums to 0x%08X",
			errs.ErrChecksumMismatch, env.Header.Checksum, f.sum(payload))
	}
	env.Payload = payload

	return env, nil
}

// Wrap frames payload. Any count is written; Unwrap accepts only count 1,
// Open accepts any.
func (f *Framer) Wrap(count uint32, payload []byte) ([]byte, error) {
	return f.WrapFunc(count, func(bb *pool.ByteBuffer) error {
		bb.MustWrite(payload)
		return nil
	})
}

// WrapFunc frames whatever fill appends to bb. The header fields that depend
// on the payload are reserved first and patched once fill returns, so the
// payload is serialized exactly once.
func (f *Framer) WrapFunc(count uint32, fill func(bb *pool.ByteBuffer) error) ([]byte, error) {
	bb := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(bb)

	hdrOffset := bb.Reserve(HeaderSize)
	start := bb.Len()
	if err := fill(bb); err != nil {
		return nil, err
	}
	payload := bb.Slice(start, bb.Len())
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("%w: envelope payload is %d bytes", errs.ErrValueTooLarge, len(payload))
	}

	hdr := Header{
		Magic:    f.magic,
		Checksum: f.sum(payload),
		Count:    count,
		Length:   uint32(len(payload)), //nolint:gosec
	}
	bb.Patch(hdrOffset, hdr.Bytes())

	return bb.Clone(), nil
}
