// Package archive reads and rebuilds the single-entry container that wraps a
// save envelope.
//
// Reading follows the declared local header: signature, fixed fields, name,
// extra and exactly CompressedSize payload bytes. Writing does not implement
// general archive output. It emits a fixed single-entry template and patches
// the entry checksum, the two sizes and the directory offset, which is all
// that changes when the payload changes.
package archive

import (
	"fmt"

	"github.com/arloliu/pksave/checksum"
	"github.com/arloliu/pksave/compress"
	"github.com/arloliu/pksave/cursor"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
)

// LocalHeader mirrors the fixed fields of a local file header.
type LocalHeader struct {
	VersionNeeded    uint16
	Flags            uint16
	Method           format.Method
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLength       uint16
	ExtraLength      uint16
}

// Entry is the single entry of a container. Name, Extra and Data alias the
// input passed to Parse.
type Entry struct {
	Header LocalHeader
	Name   string
	Extra  []byte
	// Data is the entry payload as stored, still compressed.
	Data []byte
}

// Parse reads the first entry of data and checks that the rest of the
// container is a directory describing exactly one entry.
func Parse(data []byte) (*Entry, error) {
	c := cursor.New(data)

	sig, err := c.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("archive signature: %w", err)
	}
	if sig != localHeaderSignature {
		return nil, fmt.Errorf("%w: archive signature 0x%08X", errs.ErrBadMagic, sig)
	}

	e := &Entry{}
	if err := e.Header.read(c); err != nil {
		return nil, fmt.Errorf("archive local header: %w", err)
	}

	name, err := c.ReadFixed(int(e.Header.NameLength))
	if err != nil {
		return nil, fmt.Errorf("archive entry name: %w", err)
	}
	e.Name = string(name)

	if e.Extra, err = c.ReadFixed(int(e.Header.ExtraLength)); err != nil {
		return nil, fmt.Errorf("archive entry extra: %w", err)
	}

	if e.Header.Flags&flagEncrypted != 0 {
		return nil, fmt.Errorf("%w: entry %q is encrypted", errs.ErrUnsupportedCompression, e.Name)
	}
	if e.Header.Flags&flagDataDescriptor != 0 {
		return nil, fmt.Errorf("%w: entry %q uses a trailing data descriptor", errs.ErrUnsupportedCompression, e.Name)
	}

	if e.Data, err = c.ReadFixed(int(e.Header.CompressedSize)); err != nil {
		return nil, fmt.Errorf("archive entry data: %w", err)
	}

	if err := checkSingleEntry(c); err != nil {
		return nil, err
	}

	return e, nil
}

func (h *LocalHeader) read(c *cursor.Cursor) error {
	var err error
	read16 := func(dst *uint16) {
		if err == nil {
			*dst, err = c.ReadUint16()
		}
	}
	read32 := func(dst *uint32) {
		if err == nil {
			*dst, err = c.ReadUint32()
		}
	}

	var method uint16
	read16(&h.VersionNeeded)
	read16(&h.Flags)
	read16(&method)
	read16(&h.ModTime)
	read16(&h.ModDate)
	read32(&h.CRC32)
	read32(&h.CompressedSize)
	read32(&h.UncompressedSize)
	read16(&h.NameLength)
	read16(&h.ExtraLength)
	h.Method = format.Method(method)

	return err
}

// checkSingleEntry validates what follows the entry payload: a central
// directory starting right away and an end record declaring one entry.
// Containers without a directory (truncated after the payload) are accepted,
// since the entry itself is complete.
func checkSingleEntry(c *cursor.Cursor) error {
	if c.Remaining() == 0 {
		return nil
	}

	sig, err := c.ReadUint32()
	if err != nil {
		return fmt.Errorf("archive directory: %w", err)
	}
	switch sig {
	case centralDirectorySignature:
	case localHeaderSignature:
		return fmt.Errorf("%w: container holds more than one entry", errs.ErrInvalidFormat)
	default:
		return fmt.Errorf("%w: unexpected record 0x%08X after entry data", errs.ErrInvalidFormat, sig)
	}

	rest := c.Rest()
	if len(rest) < endOfDirectorySize {
		return fmt.Errorf("%w: missing end of central directory", errs.ErrOutOfData)
	}
	end := cursor.New(rest[len(rest)-endOfDirectorySize:])
	endSig, _ := end.ReadUint32()
	if endSig != endOfDirectorySignature {
		// A trailing archive comment would move the end record; saves never carry one.
		return fmt.Errorf("%w: end of central directory not at end of container", errs.ErrInvalidFormat)
	}
	_ = end.Skip(6)
	total, _ := end.ReadUint16()
	if total != 1 {
		return fmt.Errorf("%w: container declares %d entries", errs.ErrInvalidFormat, total)
	}

	return nil
}

// Extract returns the uncompressed entry payload.
//
// Deflated entries are inflated with dec and must produce exactly
// UncompressedSize bytes; stored entries must declare equal sizes. A
// non-zero entry CRC-32 is then checked against the result.
func (e *Entry) Extract(dec compress.Decompressor) ([]byte, error) {
	var (
		out []byte
		err error
	)

	switch e.Header.Method {
	case format.MethodDeflate:
		out, err = compress.DecompressSize(dec, e.Data, int(e.Header.UncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("archive entry %q: %w", e.Name, err)
		}
	case format.MethodStored:
		if e.Header.CompressedSize != e.Header.UncompressedSize {
			return nil, fmt.Errorf("%w: stored entry %q declares %d and %d bytes", errs.ErrDecompressionSizeMismatch,
				e.Name, e.Header.CompressedSize, e.Header.UncompressedSize)
		}
		out = e.Data
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, e.Header.Method)
	}

	if e.Header.CRC32 == 0 {
		return out, nil
	}
	if got := checksum.IEEE(out); got != e.Header.CRC32 {
		return nil, fmt.Errorf("%w: archive entry %q declares crc 0x%08X, data sums to 0x%08X",
			errs.ErrChecksumMismatch, e.Name, e.Header.CRC32, got)
	}

	return out, nil
}
