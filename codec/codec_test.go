package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arloliu/pksave/cursor"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
	"github.com/arloliu/pksave/internal/pool"
	"github.com/arloliu/pksave/value"
	"github.com/stretchr/testify/require"
)

// samplePayload is an untagged root table exercising every understood tag.
var samplePayload = []byte{
	0x00, 0x00, 0x00, 0x05, // 5 pairs
	0x08, 0x00, 0x03, 'a', 'g', 'e', // "age"
	0x05, 0x2A, 0x00, 0x00, 0x00, // UInt32(42)
	0x08, 0x00, 0x04, 'b', 'i', 'g', '!', // "big!"
	0x06, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, // UInt64
	0x0B, 0x34, 0x12, // UInt16(0x1234) as key
	0x0A, 0x02, // Boolean with non-canonical byte
	0x08, 0x00, 0x03, 's', 'u', 'b', // "sub"
	0x07, 0x00, 0x00, 0x00, 0x02, // nested table, 2 pairs
	0x08, 0x00, 0x00, // ""
	0x0C, 1, 2, 3, 4, 5, 6, 7, 8, // Opaque 8
	0x08, 0x00, 0x02, 0xC3, 0xA9, // "é"
	0x0D, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, // Opaque 12
	0x08, 0x00, 0x04, 'f', 'l', 'a', 'g', // "flag"
	0x0A, 0x01, // true
}

func TestDecode_ConcreteTable(t *testing.T) {
	data := []byte{0x07, 0x00, 0x00, 0x00, 0x01, 0x08, 0x00, 0x03, 'f', 'o', 'o', 0x0A, 0x01}

	v, err := Decode(cursor.New(data))
	require.NoError(t, err)

	want := value.NewTable(value.Pair{Key: value.String("foo"), Value: value.True})
	require.True(t, value.Equal(want, v))

	tbl := v.(*value.Table)
	value.SetField(tbl, "foo", value.Bool(false))

	out, err := EncodeRoot(tbl)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00, 0x00, 0x01}, out[:4])
	require.Equal(t, []byte{0x08, 0x00, 0x03, 'f', 'o', 'o', 0x0A, 0x00}, out[4:])

	tagged, err := Encode(tbl)
	require.NoError(t, err)
	require.Equal(t, byte(format.TagTable), tagged[0])
	require.Equal(t, out, tagged[1:])
}

func TestDecodeRoot_Sample(t *testing.T) {
	root, err := DecodeRoot(cursor.New(samplePayload))
	require.NoError(t, err)
	require.Equal(t, 5, root.Len())

	require.Equal(t, value.UInt32(42), *root.Lookup("age"))
	require.Equal(t, value.UInt64(0x0807060504030201), *root.Lookup("big!"))
	require.Equal(t, value.UInt16(0x1234), root.Pairs[2].Key)
	require.Equal(t, value.Boolean(0x02), root.Pairs[2].Value)
	require.False(t, root.Pairs[2].Value.(value.Boolean).Bool())
	require.Equal(t, value.True, *root.Lookup("flag"))

	sub := (*root.Lookup("sub")).(*value.Table)
	require.Equal(t, 2, sub.Len())
	require.Equal(t, value.Opaque{Code: format.TagOpaque8, Payload: []byte{1, 2, 3, 4, 5, 6, 7, 8}}, sub.Pairs[0].Value)
	require.Equal(t, value.String("é"), sub.Pairs[1].Key)
	require.Equal(t, format.TagOpaque12, sub.Pairs[1].Value.Tag())
}

func TestRoundTrip(t *testing.T) {
	root, err := DecodeRoot(cursor.New(samplePayload))
	require.NoError(t, err)

	out, err := EncodeRoot(root)
	require.NoError(t, err)
	require.Equal(t, samplePayload, out)
}

func TestRoundTrip_EmptyRoot(t *testing.T) {
	payload := []byte{0, 0, 0, 0}

	root, err := DecodeRoot(cursor.New(payload))
	require.NoError(t, err)
	require.Equal(t, 0, root.Len())

	out, err := EncodeRoot(root)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestRoundTrip_AfterEdit(t *testing.T) {
	root, err := DecodeRoot(cursor.New(samplePayload))
	require.NoError(t, err)

	require.NoError(t, value.SetPath(root, []string{"flag"}, value.False))

	out, err := EncodeRoot(root)
	require.NoError(t, err)
	require.Len(t, out, len(samplePayload))
	require.Equal(t, samplePayload[:len(samplePayload)-1], out[:len(out)-1])
	require.Equal(t, byte(0x00), out[len(out)-1])
}

func TestDecode_Scalars(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want value.Value
	}{
		{"uint16", []byte{0x0B, 0xFF, 0x00}, value.UInt16(255)},
		{"uint32", []byte{0x05, 0x01, 0x00, 0x00, 0x80}, value.UInt32(0x80000001)},
		{"uint64", []byte{0x06, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, value.UInt64(^uint64(0))},
		{"false", []byte{0x0A, 0x00}, value.False},
		{"true", []byte{0x0A, 0x01}, value.True},
		{"odd boolean", []byte{0x0A, 0xFF}, value.Boolean(0xFF)},
		{"empty string", []byte{0x08, 0x00, 0x00}, value.String("")},
		{"string", []byte{0x08, 0x00, 0x02, 'h', 'i'}, value.String("hi")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cursor.New(tt.data)
			v, err := Decode(c)
			require.NoError(t, err)
			require.Equal(t, tt.want, v)
			require.Equal(t, 0, c.Remaining())

			out, err := Encode(v)
			require.NoError(t, err)
			require.Equal(t, tt.data, out)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, errs.ErrOutOfData},
		{"short uint32", []byte{0x05, 0x01, 0x02}, errs.ErrOutOfData},
		{"short uint64", []byte{0x06, 0x01}, errs.ErrOutOfData},
		{"short uint16", []byte{0x0B}, errs.ErrOutOfData},
		{"short boolean", []byte{0x0A}, errs.ErrOutOfData},
		{"short opaque8", []byte{0x0C, 1, 2, 3, 4, 5, 6, 7}, errs.ErrOutOfData},
		{"short opaque12", []byte{0x0D, 1, 2, 3, 4, 5, 6, 7, 8}, errs.ErrOutOfData},
		{"short table count", []byte{0x07, 0x00, 0x00}, errs.ErrOutOfData},
		{"table missing pairs", []byte{0x07, 0x00, 0x00, 0x00, 0x02, 0x0A, 0x01, 0x0A, 0x00}, errs.ErrOutOfData},
		{"string length past end", []byte{0x08, 0x00, 0x05, 'a'}, errs.ErrOutOfData},
		{"string reserved byte", []byte{0x08, 0x01, 0x01, 'a'}, errs.ErrInvalidFormat},
		{"string invalid utf8", []byte{0x08, 0x00, 0x02, 0xC3, 0x28}, errs.ErrInvalidEncoding},
		{"unknown tag", []byte{0x42}, errs.ErrUnsupportedTag},
		{"unknown nested tag", []byte{0x07, 0x00, 0x00, 0x00, 0x01, 0x08, 0x00, 0x00, 0x09}, errs.ErrUnsupportedTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(cursor.New(tt.data))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_UnsupportedTagOffset(t *testing.T) {
	data := []byte{0x07, 0x00, 0x00, 0x00, 0x01, 0x08, 0x00, 0x00, 0x0E}

	_, err := Decode(cursor.New(data))
	var tagErr *errs.UnsupportedTagError
	require.ErrorAs(t, err, &tagErr)
	require.Equal(t, byte(0x0E), tagErr.Tag)
	require.Equal(t, 8, tagErr.Offset)
}

func TestDecodeRoot_TrailingBytes(t *testing.T) {
	data := append(bytes.Clone(samplePayload), 0x00)

	_, err := DecodeRoot(cursor.New(data))
	require.ErrorIs(t, err, errs.ErrInvalidFormat)
}

func TestDecode_HugeCountDoesNotPreallocate(t *testing.T) {
	data := []byte{0x07, 0xFF, 0xFF, 0xFF, 0xFF, 0x0A, 0x01}

	_, err := Decode(cursor.New(data))
	require.ErrorIs(t, err, errs.ErrOutOfData)
}

func TestPairCapacity(t *testing.T) {
	tests := []struct {
		count     uint32
		remaining int
		want      int
	}{
		{0xFFFFFFFF, 2, 0},
		{0xFFFFFFFF, 40, 10},
		{0x80000000, 1 << 20, 1 << 18},
		{3, 1 << 20, 3},
		{5, 0, 0},
		{5, -1, 0},
	}

	for _, tt := range tests {
		got := pairCapacity(tt.count, tt.remaining)
		require.Equal(t, tt.want, got, "count=%#x remaining=%d", tt.count, tt.remaining)
		require.GreaterOrEqual(t, got, 0)
	}
}

func TestDecodeRoot_MaxCountShortBody(t *testing.T) {
	_, err := DecodeRoot(cursor.New([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0A, 0x01, 0x0A}))
	require.ErrorIs(t, err, errs.ErrOutOfData)
}

func TestDecode_MaxDepth(t *testing.T) {
	var data []byte
	for range MaxDepth + 1 {
		data = append(data, 0x07, 0x00, 0x00, 0x00, 0x01, 0x0A, 0x01)
	}

	_, err := Decode(cursor.New(data))
	require.ErrorIs(t, err, errs.ErrInvalidFormat)
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want error
	}{
		{"string too long", value.String(strings.Repeat("x", MaxStringLength+1)), errs.ErrValueTooLarge},
		{"invalid utf8", value.String("\xff"), errs.ErrInvalidEncoding},
		{"opaque wrong width", value.Opaque{Code: format.TagOpaque8, Payload: []byte{1}}, errs.ErrInvalidFormat},
		{"opaque non-opaque tag", value.Opaque{Code: format.TagUInt32, Payload: []byte{1, 2, 3, 4}}, errs.ErrInvalidFormat},
		{"nil value", nil, errs.ErrInvalidFormat},
		{"nil table", (*value.Table)(nil), errs.ErrInvalidFormat},
		{"nested failure", value.NewTable(value.Pair{Key: value.String("k"), Value: nil}), errs.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.v)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncode_MaxLengthString(t *testing.T) {
	s := strings.Repeat("a", MaxStringLength)

	out, err := Encode(value.String(s))
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0x00, 0xFF}, out[:3])
	require.Len(t, out, 3+MaxStringLength)
}

func TestEncoder_Reuse(t *testing.T) {
	e := NewEncoder()
	defer e.Reset()

	require.NoError(t, e.WriteValue(value.UInt16(1)))
	require.NoError(t, e.WriteValue(value.True))
	require.Equal(t, 5, e.Len())
	require.Equal(t, []byte{0x0B, 0x01, 0x00, 0x0A, 0x01}, e.Bytes())
}

func TestNewEncoderTo_AppendsToCallerBuffer(t *testing.T) {
	bb := pool.NewByteBuffer(16)
	bb.MustWrite([]byte{0xFF, 0xFF})

	root, err := DecodeRoot(cursor.New(samplePayload))
	require.NoError(t, err)

	e := NewEncoderTo(bb)
	require.NoError(t, e.WriteRoot(root))
	e.Reset()

	require.Equal(t, []byte{0xFF, 0xFF}, bb.Bytes()[:2])
	require.Equal(t, samplePayload, bb.Bytes()[2:])
}

func FuzzRoundTrip(f *testing.F) {
	f.Add(samplePayload)
	f.Add([]byte{0, 0, 0, 0})
	f.Add([]byte{0, 0, 0, 1, 0x0A, 0x01, 0x0A, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		root, err := DecodeRoot(cursor.New(data))
		if err != nil {
			return
		}

		out, err := EncodeRoot(root)
		require.NoError(t, err)
		require.Equal(t, data, out)
	})
}
