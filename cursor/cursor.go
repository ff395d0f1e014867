// Package cursor provides a bounds-checked forward reader over a byte slice.
//
// A Cursor never copies: every slice it returns aliases the buffer given to
// New, so the buffer must outlive any value decoded from it that keeps such a
// slice. Every read checks the remaining length first and fails with
// errs.ErrOutOfData instead of panicking.
package cursor

import (
	"fmt"

	"github.com/arloliu/pksave/endian"
	"github.com/arloliu/pksave/errs"
)

// Cursor is a read offset into an immutable byte slice.
//
// Invariant: 0 <= offset <= len(data).
//
// Note: a Cursor is NOT thread-safe.
type Cursor struct {
	data   []byte
	offset int
	le     endian.EndianEngine
	be     endian.EndianEngine
}

// New returns a cursor positioned at the start of data.
func New(data []byte) *Cursor {
	return &Cursor{
		data: data,
		le:   endian.GetLittleEndianEngine(),
		be:   endian.GetBigEndianEngine(),
	}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.offset
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.offset
}

// Rest returns the unread bytes without advancing.
func (c *Cursor) Rest() []byte {
	return c.data[c.offset:]
}

// PeekFixed returns the next n bytes without advancing.
func (c *Cursor) PeekFixed(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, %d remaining",
			errs.ErrOutOfData, n, c.offset, c.Remaining())
	}

	return c.data[c.offset : c.offset+n : c.offset+n], nil
}

// ReadFixed returns the next n bytes and advances past them.
func (c *Cursor) ReadFixed(n int) ([]byte, error) {
	b, err := c.PeekFixed(n)
	if err != nil {
		return nil, err
	}
	c.offset += n

	return b, nil
}

// Skip advances past n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.ReadFixed(n)
	return err
}

// ReadByte reads a single byte.
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.ReadFixed(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.ReadFixed(2)
	if err != nil {
		return 0, err
	}

	return c.le.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.ReadFixed(4)
	if err != nil {
		return 0, err
	}

	return c.le.Uint32(b), nil
}

// ReadUint64 reads a little-endian uint64.
func (c *Cursor) ReadUint64() (uint64, error) {
	b, err := c.ReadFixed(8)
	if err != nil {
		return 0, err
	}

	return c.le.Uint64(b), nil
}

// ReadUint32BE reads a big-endian uint32.
func (c *Cursor) ReadUint32BE() (uint32, error) {
	b, err := c.ReadFixed(4)
	if err != nil {
		return 0, err
	}

	return c.be.Uint32(b), nil
}
