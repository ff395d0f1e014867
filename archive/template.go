package archive

// EntryName is the name of the single entry in a save container.
const EntryName = "gamedata"

// Archive record signatures.
const (
	localHeaderSignature      = 0x04034b50
	centralDirectorySignature = 0x02014b50
	endOfDirectorySignature   = 0x06054b50
)

// Fixed record sizes, excluding variable-length names and extras.
const (
	localHeaderSize      = 30
	centralDirectorySize = 46
	endOfDirectorySize   = 22
)

// Flag bits that change how an entry must be read.
const (
	flagEncrypted      = 0x0001
	flagDataDescriptor = 0x0008
)

// headTemplate is the local file header of the rebuilt container: version 2.0,
// no flags, deflate, a fixed timestamp and the entry name. CRC and sizes are
// zero here and patched by Rebuild.
var headTemplate = [...]byte{
	0x50, 0x4B, 0x03, 0x04, // signature
	0x14, 0x00, // version needed
	0x00, 0x00, // flags
	0x08, 0x00, // method: deflate
	0x72, 0xA2, // mod time
	0x71, 0x55, // mod date
	0x00, 0x00, 0x00, 0x00, // crc-32
	0x00, 0x00, 0x00, 0x00, // compressed size
	0x00, 0x00, 0x00, 0x00, // uncompressed size
	0x08, 0x00, // name length
	0x00, 0x00, // extra length
	'g', 'a', 'm', 'e', 'd', 'a', 't', 'a',
}

// tailTemplate is the central directory record for the single entry followed
// by the end-of-central-directory record.
var tailTemplate = [...]byte{
	// central directory record, offset 0
	0x50, 0x4B, 0x01, 0x02, // signature
	0x14, 0x00, // version made by
	0x14, 0x00, // version needed
	0x00, 0x00, // flags
	0x08, 0x00, // method: deflate
	0x72, 0xA2, // mod time
	0x71, 0x55, // mod date
	0x00, 0x00, 0x00, 0x00, // crc-32
	0x00, 0x00, 0x00, 0x00, // compressed size
	0x00, 0x00, 0x00, 0x00, // uncompressed size
	0x08, 0x00, // name length
	0x00, 0x00, // extra length
	0x00, 0x00, // comment length
	0x00, 0x00, // disk number start
	0x00, 0x00, // internal attributes
	0x00, 0x00, 0x00, 0x00, // external attributes
	0x00, 0x00, 0x00, 0x00, // local header offset
	'g', 'a', 'm', 'e', 'd', 'a', 't', 'a',
	// end of central directory, offset 54
	0x50, 0x4B, 0x05, 0x06, // signature
	0x00, 0x00, // this disk
	0x00, 0x00, // directory disk
	0x01, 0x00, // entries on this disk
	0x01, 0x00, // total entries
	0x36, 0x00, 0x00, 0x00, // directory size: 46 + len(EntryName)
	0x00, 0x00, 0x00, 0x00, // directory offset
	0x00, 0x00, // comment length
}

// field names a value Rebuild patches into a template.
type field uint8

const (
	fieldCRC field = iota
	fieldCompressedSize
	fieldUncompressedSize
	fieldDirectoryOffset
)

// patch is one little-endian uint32 written at offset of a template.
type patch struct {
	offset int
	field  field
}

var headPatches = [...]patch{
	{offset: 14, field: fieldCRC},
	{offset: 18, field: fieldCompressedSize},
	{offset: 22, field: fieldUncompressedSize},
}

var tailPatches = [...]patch{
	{offset: 16, field: fieldCRC},
	{offset: 20, field: fieldCompressedSize},
	{offset: 24, field: fieldUncompressedSize},
	{offset: 70, field: fieldDirectoryOffset},
}
