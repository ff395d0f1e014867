package codec

import (
	"fmt"
	"unicode/utf8"

	"github.com/arloliu/pksave/cursor"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
	"github.com/arloliu/pksave/value"
)

// MaxDepth is the deepest table nesting the decoder accepts.
const MaxDepth = 512

// minPairSize is the smallest encoded key/value pair: two Boolean values.
const minPairSize = 4

// Decoder reads values from a cursor.
//
// Note: the Decoder is NOT thread-safe. Opaque payloads in the returned tree
// alias the cursor's buffer.
type Decoder struct {
	c     *cursor.Cursor
	depth int
}

// NewDecoder creates a decoder reading from c.
func NewDecoder(c *cursor.Cursor) *Decoder {
	return &Decoder{c: c}
}

// Decode reads one tagged value from c.
func Decode(c *cursor.Cursor) (value.Value, error) {
	return NewDecoder(c).Value()
}

// DecodeRoot reads an untagged root table from c and requires c to be
// fully consumed afterwards.
func DecodeRoot(c *cursor.Cursor) (*value.Table, error) {
	d := NewDecoder(c)

	root, err := d.Root()
	if err != nil {
		return nil, err
	}
	if c.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after root table at offset %d",
			errs.ErrInvalidFormat, c.Remaining(), c.Offset())
	}

	return root, nil
}

// Root reads a table body (pair count and pairs) with no leading tag.
func (d *Decoder) Root() (*value.Table, error) {
	return d.table()
}

// Value reads one tagged value.
func (d *Decoder) Value() (value.Value, error) {
	start := d.c.Offset()

	code, err := d.c.ReadByte()
	if err != nil {
		return nil, err
	}

	tag := format.Tag(code)
	switch tag {
	case format.TagTable:
		return d.table()
	case format.TagUInt32:
		v, err := d.c.ReadUint32()
		return value.UInt32(v), err
	case format.TagUInt64:
		v, err := d.c.ReadUint64()
		return value.UInt64(v), err
	case format.TagUInt16:
		v, err := d.c.ReadUint16()
		return value.UInt16(v), err
	case format.TagString:
		return d.string()
	case format.TagBoolean:
		b, err := d.c.ReadByte()
		return value.Boolean(b), err
	case format.TagOpaque8, format.TagOpaque12:
		width, _ := format.OpaqueWidth(tag)
		payload, err := d.c.ReadFixed(width)
		if err != nil {
			return nil, err
		}

		return value.Opaque{Code: tag, Payload: payload}, nil
	default:
		return nil, &errs.UnsupportedTagError{Tag: code, Offset: start}
	}
}

// pairCapacity bounds the preallocation for an untrusted pair count by what
// the remaining input could hold. The comparison runs in uint64 so a count
// above math.MaxInt32 cannot turn negative on 32-bit platforms.
func pairCapacity(count uint32, remaining int) int {
	if remaining <= 0 {
		return 0
	}

	return int(min(uint64(count), uint64(remaining/minPairSize)))
}

func (d *Decoder) table() (*value.Table, error) {
	if d.depth >= MaxDepth {
		return nil, fmt.Errorf("%w: tables nested deeper than %d", errs.ErrInvalidFormat, MaxDepth)
	}
	d.depth++
	defer func() { d.depth-- }()

	count, err := d.c.ReadUint32BE()
	if err != nil {
		return nil, err
	}

	t := &value.Table{Pairs: make([]value.Pair, 0, pairCapacity(count, d.c.Remaining()))}

	for i := uint32(0); i < count; i++ {
		k, err := d.Value()
		if err != nil {
			return nil, err
		}
		v, err := d.Value()
		if err != nil {
			return nil, err
		}
		t.Pairs = append(t.Pairs, value.Pair{Key: k, Value: v})
	}

	return t, nil
}

func (d *Decoder) string() (value.String, error) {
	start := d.c.Offset()

	hdr, err := d.c.ReadFixed(2)
	if err != nil {
		return "", err
	}
	if hdr[0] != 0 {
		return "", fmt.Errorf("%w: string reserved byte is 0x%02X at offset %d",
			errs.ErrInvalidFormat, hdr[0], start)
	}

	raw, err := d.c.ReadFixed(int(hdr[1]))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: string at offset %d", errs.ErrInvalidEncoding, start)
	}

	return value.String(raw), nil
}
