package pksave

import (
	"bytes"
	"testing"

	"github.com/arloliu/pksave/archive"
	"github.com/arloliu/pksave/checksum"
	"github.com/arloliu/pksave/compress"
	"github.com/arloliu/pksave/envelope"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
	"github.com/arloliu/pksave/value"
	"github.com/stretchr/testify/require"
)

var testMagic = [4]byte{'S', 'A', 'V', '1'}

func testOptions(extra ...Option) []Option {
	return append([]Option{
		WithEnvelopeMagic(testMagic),
		WithEnvelopeChecksum(checksum.IEEE),
	}, extra...)
}

func sampleTree() *value.Table {
	player := value.NewTable(
		value.Pair{Key: value.String("name"), Value: value.String("Red")},
		value.Pair{Key: value.String("tutorial_done"), Value: value.False},
		value.Pair{Key: value.String("money"), Value: value.UInt32(3000)},
	)

	return value.NewTable(
		value.Pair{Key: value.String("version"), Value: value.UInt16(7)},
		value.Pair{Key: value.String("player"), Value: player},
		value.Pair{Key: value.String("seed"), Value: value.UInt64(0x0102030405060708)},
		value.Pair{Key: value.String("pos"), Value: value.Opaque{Code: format.TagOpaque12, Payload: make([]byte, 12)}},
	)
}

// containerFor frames payload and packs it the way a game would.
func containerFor(t *testing.T, count uint32, sum checksum.Func, payload []byte) []byte {
	t.Helper()

	f, err := envelope.New(testMagic, sum)
	require.NoError(t, err)
	env, err := f.Wrap(count, payload)
	require.NoError(t, err)

	deflate, err := compress.NewDeflateCodec()
	require.NoError(t, err)
	out, err := archive.Rebuild(env, deflate)
	require.NoError(t, err)

	return out
}

func envelopeOf(t *testing.T, container []byte) []byte {
	t.Helper()

	entry, err := archive.Parse(container)
	require.NoError(t, err)
	deflate, err := compress.NewDeflateCodec()
	require.NoError(t, err)
	env, err := entry.Extract(deflate)
	require.NoError(t, err)

	return env
}

func TestBuildOpen_RoundTrip(t *testing.T) {
	root := sampleTree()

	data, err := Build(root, testOptions()...)
	require.NoError(t, err)

	doc, err := Open(data, testOptions()...)
	require.NoError(t, err)
	require.True(t, value.Equal(root, doc.Root))
	require.Equal(t, testMagic, doc.Magic)
	require.Equal(t, format.MethodDeflate, doc.Entry.Method)
}

func TestDocument_UneditedEnvelopeIsIdentical(t *testing.T) {
	payload := []byte{
		0x00, 0x00, 0x00, 0x02,
		0x08, 0x00, 0x01, 'a', 0x0A, 0x02, // non-canonical boolean byte
		0x08, 0x00, 0x01, 'b', 0x0C, 1, 2, 3, 4, 5, 6, 7, 8,
	}
	data := containerFor(t, 1, checksum.IEEE, payload)

	doc, err := Open(data, testOptions()...)
	require.NoError(t, err)

	env, err := doc.Envelope()
	require.NoError(t, err)
	require.Equal(t, envelopeOf(t, data), env)

	out, err := doc.Bytes()
	require.NoError(t, err)
	require.Equal(t, envelopeOf(t, data), envelopeOf(t, out))
}

func TestDocument_SetBoolean(t *testing.T) {
	data, err := Build(sampleTree(), testOptions()...)
	require.NoError(t, err)

	doc, err := Open(data, testOptions()...)
	require.NoError(t, err)
	require.NoError(t, doc.Set([]string{"player", "tutorial_done"}, value.True))

	out, err := doc.Bytes()
	require.NoError(t, err)

	reopened, err := Open(out, testOptions()...)
	require.NoError(t, err)

	slot := reopened.Lookup("player", "tutorial_done")
	require.NotNil(t, slot)
	require.Equal(t, value.True, *slot)
	player, ok := (*reopened.Lookup("player")).(*value.Table)
	require.True(t, ok)
	require.Equal(t, 3, player.Len())

	// Everything else is unchanged.
	want := sampleTree()
	require.NoError(t, value.SetPath(want, []string{"player", "tutorial_done"}, value.True))
	require.True(t, value.Equal(want, reopened.Root))
}

func TestDocument_LookupAssign(t *testing.T) {
	data, err := Build(sampleTree(), testOptions()...)
	require.NoError(t, err)

	doc, err := Open(data, testOptions()...)
	require.NoError(t, err)

	slot := doc.Lookup("player", "money")
	require.NotNil(t, slot)
	*slot = value.UInt32(999999)

	out, err := doc.Bytes()
	require.NoError(t, err)
	reopened, err := Open(out, testOptions()...)
	require.NoError(t, err)
	require.Equal(t, value.UInt32(999999), *reopened.Lookup("player", "money"))

	require.Nil(t, doc.Lookup("player", "missing"))
	require.ErrorIs(t, doc.Set([]string{"nope", "x"}, value.True), errs.ErrPathNotFound)
}

func TestOpen_MissingOptions(t *testing.T) {
	data, err := Build(sampleTree(), testOptions()...)
	require.NoError(t, err)

	_, err = Open(data)
	require.ErrorIs(t, err, errs.ErrMissingOption)

	_, err = Open(data, WithEnvelopeMagic(testMagic))
	require.ErrorIs(t, err, errs.ErrMissingOption)

	_, err = Open(data, WithEnvelopeChecksum(checksum.IEEE))
	require.ErrorIs(t, err, errs.ErrMissingOption)

	_, err = Build(sampleTree(), WithEnvelopeMagic(testMagic), WithEnvelopeChecksum(nil))
	require.ErrorIs(t, err, errs.ErrMissingOption)
}

func TestOpen_InvalidCompressionLevel(t *testing.T) {
	_, err := Build(sampleTree(), testOptions(WithCompressionLevel(42))...)
	require.Error(t, err)
}

func TestBuild_CompressionLevels(t *testing.T) {
	root := sampleTree()

	for _, level := range []int{-2, 0, 1, 9} {
		data, err := Build(root, testOptions(WithCompressionLevel(level))...)
		require.NoError(t, err, "level %d", level)

		doc, err := Open(data, testOptions()...)
		require.NoError(t, err, "level %d", level)
		require.True(t, value.Equal(root, doc.Root))
	}
}

func TestOpen_WrongMagic(t *testing.T) {
	data, err := Build(sampleTree(), testOptions()...)
	require.NoError(t, err)

	_, err = Open(data, WithEnvelopeMagic([4]byte{'X', 'X', 'X', 'X'}), WithEnvelopeChecksum(checksum.IEEE))
	require.ErrorIs(t, err, errs.ErrBadMagic)
}

func TestOpen_EnvelopeChecksum(t *testing.T) {
	data := containerFor(t, 1, checksum.Castagnoli, []byte{0, 0, 0, 0})

	_, err := Open(data, testOptions()...)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)

	doc, err := Open(data, testOptions(WithSkipEnvelopeVerify())...)
	require.NoError(t, err)
	require.Equal(t, 0, doc.Root.Len())

	// Rebuilt envelopes carry the configured checksum.
	out, err := doc.Bytes()
	require.NoError(t, err)
	_, err = Open(out, testOptions()...)
	require.NoError(t, err)
}

func TestOpen_RecordCount(t *testing.T) {
	data := containerFor(t, 2, checksum.IEEE, []byte{0, 0, 0, 0})

	_, err := Open(data, testOptions()...)
	require.ErrorIs(t, err, errs.ErrRecordCountUnsupported)
}

func TestOpen_UnsupportedTag(t *testing.T) {
	data := containerFor(t, 1, checksum.IEEE, []byte{0, 0, 0, 1, 0x08, 0x00, 0x01, 'k', 0x09})

	_, err := Open(data, testOptions()...)
	require.ErrorIs(t, err, errs.ErrUnsupportedTag)

	var tagErr *errs.UnsupportedTagError
	require.ErrorAs(t, err, &tagErr)
	require.Equal(t, byte(0x09), tagErr.Tag)
}

func TestOpen_WrongEntryName(t *testing.T) {
	data, err := Build(sampleTree(), testOptions()...)
	require.NoError(t, err)

	corrupt := bytes.Clone(data)
	corrupt[30+len(archive.EntryName)-1] = 'b'
	_, err = Open(corrupt, testOptions()...)
	require.ErrorIs(t, err, errs.ErrInvalidFormat)
}

func TestOpen_StoredEntryRejected(t *testing.T) {
	data, err := Build(sampleTree(), testOptions()...)
	require.NoError(t, err)

	corrupt := bytes.Clone(data)
	corrupt[8] = 0
	_, err = Open(corrupt, testOptions()...)
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestOpen_CorruptArchive(t *testing.T) {
	data, err := Build(sampleTree(), testOptions()...)
	require.NoError(t, err)

	_, err = Open(data[:20], testOptions()...)
	require.ErrorIs(t, err, errs.ErrOutOfData)

	corrupt := bytes.Clone(data)
	corrupt[0] = 'Q'
	_, err = Open(corrupt, testOptions()...)
	require.ErrorIs(t, err, errs.ErrBadMagic)
}

func TestBuild_NilRoot(t *testing.T) {
	_, err := Build(nil, testOptions()...)
	require.ErrorIs(t, err, errs.ErrInvalidFormat)
}

func TestBuild_StringTooLong(t *testing.T) {
	root := value.NewTable(value.Pair{
		Key:   value.String("name"),
		Value: value.String(bytes.Repeat([]byte{'a'}, 256)),
	})

	_, err := Build(root, testOptions()...)
	require.ErrorIs(t, err, errs.ErrValueTooLarge)
}
