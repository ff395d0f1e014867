package envelope

import (
	"github.com/arloliu/pksave/endian"
	"github.com/arloliu/pksave/errs"
)

// Header layout, all multi-byte fields big-endian.
const (
	HeaderSize = 16

	magicOffset    = 0
	checksumOffset = 4
	countOffset    = 8
	lengthOffset   = 12
)

// Header is the fixed-size prefix of an envelope.
type Header struct {
	Magic    [4]byte // byte offset 0-3
	Checksum uint32  // byte offset 4-7
	Count    uint32  // byte offset 8-11, number of root tables
	Length   uint32  // byte offset 12-15, payload length in bytes
}

// Parse parses the header from a byte slice of exactly HeaderSize bytes.
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	engine := endian.GetBigEndianEngine()

	copy(h.Magic[:], data[magicOffset:checksumOffset])
	h.Checksum = engine.Uint32(data[checksumOffset:countOffset])
	h.Count = engine.Uint32(data[countOffset:lengthOffset])
	h.Length = engine.Uint32(data[lengthOffset:HeaderSize])

	return nil
}

// Bytes serializes the header.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	h.Put(b)

	return b
}

// Put writes the header into the first HeaderSize bytes of b.
func (h *Header) Put(b []byte) {
	engine := endian.GetBigEndianEngine()

	copy(b[magicOffset:checksumOffset], h.Magic[:])
	engine.PutUint32(b[checksumOffset:countOffset], h.Checksum)
	engine.PutUint32(b[countOffset:lengthOffset], h.Count)
	engine.PutUint32(b[lengthOffset:HeaderSize], h.Length)
}
