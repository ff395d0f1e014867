package backup

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
	"github.com/stretchr/testify/require"
)

var allCompressions = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

func sampleContainer() []byte {
	b := []byte{0x50, 0x4B, 0x03, 0x04}
	for i := range 4096 {
		b = append(b, byte(i%61), byte(i/61))
	}

	return b
}

func TestWriteRead_RoundTrip(t *testing.T) {
	for _, ct := range allCompressions {
		t.Run(ct.String(), func(t *testing.T) {
			for _, original := range [][]byte{{}, {0x01}, sampleContainer()} {
				var buf bytes.Buffer
				require.NoError(t, Write(&buf, original, ct))

				h, err := ParseHeader(buf.Bytes())
				require.NoError(t, err)
				require.Equal(t, uint8(Version), h.Version)
				require.Equal(t, ct, h.Compression)
				require.Equal(t, uint32(len(original)), h.Length)

				got, err := Read(&buf)
				require.NoError(t, err)
				require.Equal(t, len(original), len(got))
				require.True(t, bytes.Equal(original, got))
			}
		})
	}
}

func TestWrite_UnsupportedCompression(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []byte("x"), format.CompressionType(0x7F))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
	require.Zero(t, buf.Len())
}

func TestDecode_BadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleContainer(), format.CompressionS2))

	data := buf.Bytes()
	data[0] = 'X'
	_, err := Decode(data)
	require.ErrorIs(t, err, errs.ErrBadMagic)
}

func TestDecode_BadVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleContainer(), format.CompressionNone))

	data := buf.Bytes()
	data[4] = 2
	_, err := Decode(data)
	require.ErrorIs(t, err, errs.ErrInvalidFormat)
}

func TestDecode_ShortHeader(t *testing.T) {
	_, err := Decode(Magic[:])
	require.ErrorIs(t, err, errs.ErrOutOfData)
}

func TestDecode_HashMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleContainer(), format.CompressionNone))

	data := buf.Bytes()
	data[HeaderSize+10] ^= 0x01
	_, err := Decode(data)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
}

func TestDecode_LengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleContainer(), format.CompressionZstd))

	data := buf.Bytes()
	data[6]++
	_, err := Decode(data)
	require.ErrorIs(t, err, errs.ErrDecompressionSizeMismatch)
}

type failingWriter struct{}

var errWrite = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestWrite_WriterError(t *testing.T) {
	err := Write(failingWriter{}, sampleContainer(), format.CompressionNone)
	require.ErrorIs(t, err, errWrite)
}

func TestPath(t *testing.T) {
	at := time.Date(2024, 3, 9, 17, 4, 5, 0, time.FixedZone("X", 3600))

	got := Path(filepath.Join("saves", "main.bin"), at)
	require.Equal(t, filepath.Join("saves", "main.bin.20240309T160405Z.pksb"), got)
}

func TestTargetOf(t *testing.T) {
	target := filepath.Join("saves", "main.bin")
	got, err := TargetOf(Path(target, time.Now()))
	require.NoError(t, err)
	require.Equal(t, target, got)

	for _, bad := range []string{"main.bin", "main.bin.pksb", ".20240309T160405Z.pksb", "main.bin.yesterday.pksb"} {
		_, err := TargetOf(bad)
		require.ErrorIs(t, err, errs.ErrInvalidFormat, bad)
	}
}
