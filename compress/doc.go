// Package compress provides the compression codecs used by pksave.
//
// # Archive Entries
//
// Save containers store their single entry with raw DEFLATE (archive
// compression method 8). DeflateCodec implements it on top of
// github.com/klauspost/compress/flate with pooled writers and readers:
//
//	codec, _ := compress.NewDeflateCodec(compress.WithDeflateLevel(flate.BestCompression))
//	packed, _ := codec.Compress(envelope)
//	original, err := codec.DecompressSize(packed, declaredSize)
//
// The compressed bytes need not match what the game itself produced; only
// the inflated bytes and the sizes and checksum recorded next to them must be
// consistent.
//
// # Backups
//
// Backups written before overwriting a save use one of the codecs selected by
// format.CompressionType:
//
//	| Type  | Codec           | Notes                                  |
//	|-------|-----------------|----------------------------------------|
//	| None  | NoOpCompressor  | data stored as-is                      |
//	| Zstd  | ZstdCompressor  | best ratio, frame checksum enabled     |
//	| S2    | S2Compressor    | fastest                                |
//	| LZ4   | LZ4Compressor   | fast, sized decompression              |
//
// # Sized Decompression
//
// Archive entries and backups both record the original size. DecompressSize
// enforces it and fails with errs.ErrDecompressionSizeMismatch on any
// difference; codecs implementing SizedDecompressor can stop early.
//
// # Thread Safety
//
// All codecs are stateless values backed by sync.Pool and are safe for
// concurrent use.
package compress
