package codec

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/arloliu/pksave/endian"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
	"github.com/arloliu/pksave/internal/pool"
	"github.com/arloliu/pksave/value"
)

// MaxStringLength is the longest string the one-byte length prefix can describe.
const MaxStringLength = math.MaxUint8

// Encoder serializes value trees into a pooled buffer.
//
// Note: the Encoder is NOT thread-safe. Call Reset when done to return the
// buffer to the pool.
type Encoder struct {
	buf   *pool.ByteBuffer
	le    endian.EndianEngine
	be    endian.EndianEngine
	owned bool
}

// NewEncoder creates an encoder backed by a pooled payload buffer.
func NewEncoder() *Encoder {
	return &Encoder{
		buf:   pool.GetPayloadBuffer(),
		le:    endian.GetLittleEndianEngine(),
		be:    endian.GetBigEndianEngine(),
		owned: true,
	}
}

// NewEncoderTo creates an encoder appending to bb. The caller keeps
// ownership of bb; Reset only detaches it.
func NewEncoderTo(bb *pool.ByteBuffer) *Encoder {
	return &Encoder{
		buf: bb,
		le:  endian.GetLittleEndianEngine(),
		be:  endian.GetBigEndianEngine(),
	}
}

// Encode returns the tagged encoding of v.
func Encode(v value.Value) ([]byte, error) {
	e := NewEncoder()
	defer e.Reset()

	if err := e.WriteValue(v); err != nil {
		return nil, err
	}

	return e.buf.Clone(), nil
}

// EncodeRoot returns the untagged encoding of the root table t.
func EncodeRoot(t *value.Table) ([]byte, error) {
	e := NewEncoder()
	defer e.Reset()

	if err := e.WriteRoot(t); err != nil {
		return nil, err
	}

	return e.buf.Clone(), nil
}

// WriteRoot appends t without a leading table tag.
func (e *Encoder) WriteRoot(t *value.Table) error {
	return e.write(t, true)
}

// WriteValue appends v with its tag.
func (e *Encoder) WriteValue(v value.Value) error {
	return e.write(v, false)
}

// Bytes returns the encoded data. The slice is owned by the encoder and is
// invalidated by Reset.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of encoded bytes.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Reset returns an owned buffer to the pool. The encoder must not be used
// afterwards.
func (e *Encoder) Reset() {
	if e.buf != nil && e.owned {
		pool.PutPayloadBuffer(e.buf)
	}
	e.buf = nil
}

func (e *Encoder) write(v value.Value, root bool) error {
	switch x := v.(type) {
	case *value.Table:
		return e.writeTable(x, root)
	case value.UInt32:
		e.buf.B = e.le.AppendUint32(append(e.buf.B, byte(format.TagUInt32)), uint32(x))
	case value.UInt64:
		e.buf.B = e.le.AppendUint64(append(e.buf.B, byte(format.TagUInt64)), uint64(x))
	case value.UInt16:
		e.buf.B = e.le.AppendUint16(append(e.buf.B, byte(format.TagUInt16)), uint16(x))
	case value.Boolean:
		e.buf.B = append(e.buf.B, byte(format.TagBoolean), byte(x))
	case value.String:
		return e.writeString(x)
	case value.Opaque:
		return e.writeOpaque(x)
	case nil:
		return fmt.Errorf("%w: nil value", errs.ErrInvalidFormat)
	default:
		return fmt.Errorf("%w: cannot encode %T", errs.ErrInvalidFormat, v)
	}

	return nil
}

func (e *Encoder) writeTable(t *value.Table, root bool) error {
	if t == nil {
		return fmt.Errorf("%w: nil table", errs.ErrInvalidFormat)
	}
	if uint64(len(t.Pairs)) > math.MaxUint32 {
		return fmt.Errorf("%w: table has %d pairs", errs.ErrValueTooLarge, len(t.Pairs))
	}

	if !root {
		e.buf.B = append(e.buf.B, byte(format.TagTable))
	}
	e.buf.B = e.be.AppendUint32(e.buf.B, uint32(len(t.Pairs))) //nolint:gosec

	for _, p := range t.Pairs {
		if err := e.write(p.Key, false); err != nil {
			return err
		}
		if err := e.write(p.Value, false); err != nil {
			return err
		}
	}

	return nil
}

func (e *Encoder) writeString(s value.String) error {
	if len(s) > MaxStringLength {
		return fmt.Errorf("%w: string length %d exceeds maximum %d", errs.ErrValueTooLarge, len(s), MaxStringLength)
	}
	if !utf8.ValidString(string(s)) {
		return fmt.Errorf("%w: %q", errs.ErrInvalidEncoding, string(s))
	}

	e.buf.Grow(3 + len(s))
	e.buf.B = append(e.buf.B, byte(format.TagString), 0x00, uint8(len(s))) //nolint:gosec
	e.buf.B = append(e.buf.B, string(s)...)

	return nil
}

func (e *Encoder) writeOpaque(o value.Opaque) error {
	width, ok := format.OpaqueWidth(o.Code)
	if !ok {
		return fmt.Errorf("%w: %s is not an opaque tag", errs.ErrInvalidFormat, o.Code)
	}
	if len(o.Payload) != width {
		return fmt.Errorf("%w: %s payload is %d bytes, want %d", errs.ErrInvalidFormat, o.Code, len(o.Payload), width)
	}

	e.buf.B = append(e.buf.B, byte(o.Code))
	e.buf.B = append(e.buf.B, o.Payload...)

	return nil
}
