// Package checksum provides the 32-bit checksum primitives used by pksave.
//
// Two checksums are involved in a save container:
//
//   - The archive entry checksum is standard CRC-32 (IEEE), see IEEE.
//   - The envelope checksum is a non-standard 32-bit variant whose definition
//     is not known. It is never hardcoded: callers inject a Func. The named
//     candidates in this package (Castagnoli, Koopman, XXHash32) exist so a
//     configuration can select one while the real algorithm is being recovered.
package checksum

import (
	"fmt"
	"hash/crc32"
	"sort"
	"strings"

	"github.com/arloliu/pksave/errs"
	"github.com/cespare/xxhash/v2"
)

// Func computes a 32-bit checksum over data.
type Func func(data []byte) uint32

var (
	castagnoliTable = crc32.MakeTable(crc32.Castagnoli)
	koopmanTable    = crc32.MakeTable(crc32.Koopman)
)

// IEEE computes CRC-32 with the IEEE polynomial, as used by archive entries.
func IEEE(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Castagnoli computes CRC-32C.
func Castagnoli(data []byte) uint32 {
	return crc32.Checksum(data, castagnoliTable)
}

// Koopman computes CRC-32 with the Koopman polynomial.
func Koopman(data []byte) uint32 {
	return crc32.Checksum(data, koopmanTable)
}

// XXHash32 returns the low 32 bits of xxHash64.
func XXHash32(data []byte) uint32 {
	return uint32(xxhash.Sum64(data)) //nolint:gosec
}

// Verify reports whether sum(data) equals expected.
func Verify(sum Func, data []byte, expected uint32) bool {
	return sum(data) == expected
}

var registry = map[string]Func{
	"ieee":       IEEE,
	"castagnoli": Castagnoli,
	"koopman":    Koopman,
	"xxhash":     XXHash32,
}

// Lookup returns the registered checksum called name (case-insensitive).
func Lookup(name string) (Func, error) {
	if fn, ok := registry[strings.ToLower(name)]; ok {
		return fn, nil
	}

	return nil, fmt.Errorf("%w: checksum %q (known: %s)", errs.ErrUnknownName, name, strings.Join(Names(), ", "))
}

// Names returns the registered checksum names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
