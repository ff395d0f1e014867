// Package errs defines the sentinel errors shared by every pksave package.
//
// Errors are wrapped with context using fmt.Errorf("...: %w", ...) at the point
// of failure, so callers should match them with errors.Is and errors.As.
package errs

import (
	"errors"
	"fmt"
)

// Cursor errors
var (
	// ErrOutOfData is returned when a read needs more bytes than remain in the buffer.
	ErrOutOfData = errors.New("out of data")
)

// Structural errors
var (
	// ErrBadMagic is returned when a fixed marker (envelope magic or archive signature) does not match.
	ErrBadMagic = errors.New("bad magic")
	// ErrInvalidFormat is returned when a structural field holds a value the format forbids.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidHeaderSize is returned when a fixed-size header is parsed from a slice of the wrong length.
	ErrInvalidHeaderSize = errors.New("invalid header size")
)

// Integrity errors
var (
	// ErrChecksumMismatch is returned when a declared checksum does not match the computed one.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrDecompressionSizeMismatch is returned when inflated data differs from the declared size.
	ErrDecompressionSizeMismatch = errors.New("decompression size mismatch")
)

// Unsupported-feature errors
var (
	// ErrUnsupportedTag is matched by *UnsupportedTagError.
	ErrUnsupportedTag = errors.New("unsupported tag")
	// ErrRecordCountUnsupported is returned when an envelope holds more or less than one root table.
	ErrRecordCountUnsupported = errors.New("record count unsupported")
	// ErrUnsupportedCompression is returned for archive entries that are neither stored nor deflated.
	ErrUnsupportedCompression = errors.New("unsupported compression method")
)

// Value errors
var (
	ErrInvalidEncoding = errors.New("invalid string encoding")
	ErrValueTooLarge   = errors.New("value too large")
	ErrPathNotFound    = errors.New("path not found")
)

// Configuration errors
var (
	ErrMissingOption = errors.New("missing required option")
	ErrUnknownName   = errors.New("unknown name")
)

// UnsupportedTagError reports a tag byte the codec has no decoding rule for.
type UnsupportedTagError struct {
	Tag    byte
	Offset int
}

func (e *UnsupportedTagError) Error() string {
	return fmt.Sprintf("unsupported tag 0x%02X at offset %d", e.Tag, e.Offset)
}

// Is makes errors.Is(err, ErrUnsupportedTag) succeed.
func (e *UnsupportedTagError) Is(target error) bool {
	return target == ErrUnsupportedTag
}
