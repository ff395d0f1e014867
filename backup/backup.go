// Package backup stores restorable copies of save containers before they are
// overwritten.
//
// A backup file is a fixed header followed by the compressed original:
//
//	Bytes  | Field        | Description
//	-------|--------------|------------------------------------------
//	0-3    | Magic        | "PKSB"
//	4      | Version      | 1
//	5      | Compression  | format.CompressionType of the body
//	6-9    | Length       | original length, little-endian
//	10-17  | Hash         | xxHash64 of the original, little-endian
//	18-    | Body         | compressed original
package backup

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/arloliu/pksave/compress"
	"github.com/arloliu/pksave/cursor"
	"github.com/arloliu/pksave/endian"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
	"github.com/cespare/xxhash/v2"
)

const (
	// HeaderSize is the size of the backup header in bytes.
	HeaderSize = 18
	// Version is the backup format version written by Write.
	Version = 1
	// Extension is appended to backup file names by Path.
	Extension = ".pksb"

	timestampLayout = "20060102T150405Z"
)

// Magic marks a backup file.
var Magic = [4]byte{'P', 'K', 'S', 'B'}

// Header describes a backup file.
type Header struct {
	Version     uint8
	Compression format.CompressionType
	Length      uint32
	Hash        uint64
}

// Bytes encodes the header including the magic.
func (h Header) Bytes() []byte {
	le := endian.GetLittleEndianEngine()

	b := make([]byte, 0, HeaderSize)
	b = append(b, Magic[:]...)
	b = append(b, h.Version, byte(h.Compression))
	b = le.AppendUint32(b, h.Length)
	b = le.AppendUint64(b, h.Hash)

	return b
}

// ParseHeader reads a backup header from the start of data.
func ParseHeader(data []byte) (Header, error) {
	var h Header

	c := cursor.New(data)
	magic, err := c.ReadFixed(len(Magic))
	if err != nil {
		return h, fmt.Errorf("backup magic: %w", err)
	}
	if [4]byte(magic) != Magic {
		return h, fmt.Errorf("%w: backup magic %q", errs.ErrBadMagic, magic)
	}

	if h.Version, err = c.ReadByte(); err != nil {
		return h, fmt.Errorf("backup version: %w", err)
	}
	if h.Version != Version {
		return h, fmt.Errorf("%w: backup version %d", errs.ErrInvalidFormat, h.Version)
	}

	comp, err := c.ReadByte()
	if err != nil {
		return h, fmt.Errorf("backup compression: %w", err)
	}
	h.Compression = format.CompressionType(comp)

	if h.Length, err = c.ReadUint32(); err != nil {
		return h, fmt.Errorf("backup length: %w", err)
	}
	if h.Hash, err = c.ReadUint64(); err != nil {
		return h, fmt.Errorf("backup hash: %w", err)
	}

	return h, nil
}

// Write writes a backup of original to w, compressed with ct.
func Write(w io.Writer, original []byte, ct format.CompressionType) error {
	if uint64(len(original)) > math.MaxUint32 {
		return fmt.Errorf("%w: backup of %d bytes", errs.ErrValueTooLarge, len(original))
	}

	codec, err := compress.CreateCodec(ct, "backup")
	if err != nil {
		return err
	}
	body, err := codec.Compress(original)
	if err != nil {
		return fmt.Errorf("backup compress: %w", err)
	}

	h := Header{
		Version:     Version,
		Compression: ct,
		Length:      uint32(len(original)), //nolint:gosec
		Hash:        xxhash.Sum64(original),
	}
	if _, err := w.Write(h.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}

	return nil
}

// Read reads a backup from r and returns the original bytes after checking
// their length and hash.
func Read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// Decode is Read for an in-memory backup.
func Decode(data []byte) ([]byte, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	codec, err := compress.CreateCodec(h.Compression, "backup")
	if err != nil {
		return nil, err
	}
	original, err := compress.DecompressSize(codec, data[HeaderSize:], int(h.Length))
	if err != nil {
		return nil, fmt.Errorf("backup body: %w", err)
	}

	if got := xxhash.Sum64(original); got != h.Hash {
		return nil, fmt.Errorf("%w: backup hash 0x%016X, data hashes to 0x%016X", errs.ErrChecksumMismatch, h.Hash, got)
	}

	return original, nil
}

// Path returns the backup file name for target taken at t, placed next to
// target: "<dir>/<base>.<UTC timestamp>.pksb".
func Path(target string, t time.Time) string {
	dir, base := filepath.Split(target)
	return filepath.Join(dir, base+"."+t.UTC().Format(timestampLayout)+Extension)
}

// TargetOf reverses Path: it returns the file a backup was taken of,
// assuming the backup still sits next to it.
func TargetOf(backupPath string) (string, error) {
	dir, name := filepath.Split(backupPath)

	stem, ok := strings.CutSuffix(name, Extension)
	if !ok {
		return "", fmt.Errorf("%w: %q has no %s extension", errs.ErrInvalidFormat, backupPath, Extension)
	}
	dot := strings.LastIndexByte(stem, '.')
	if dot <= 0 {
		return "", fmt.Errorf("%w: %q has no timestamp", errs.ErrInvalidFormat, backupPath)
	}
	if _, err := time.Parse(timestampLayout, stem[dot+1:]); err != nil {
		return "", fmt.Errorf("%w: %q: %w", errs.ErrInvalidFormat, backupPath, err)
	}

	return filepath.Join(dir, stem[:dot]), nil
}
