// Package value defines the in-memory tree produced by the codec package and
// the path-based editor used to mutate it.
//
// A tree is built by one decode call, edited in place and consumed by one
// encode call. Tables exclusively own their children; there are no shared
// nodes and no back references.
package value

import (
	"bytes"

	"github.com/arloliu/pksave/format"
)

// Value is one node of a decoded tree.
type Value interface {
	// Tag returns the wire tag that precedes the value when it is encoded.
	Tag() format.Tag
}

type (
	// UInt16 is a little-endian uint16 on the wire.
	UInt16 uint16
	// UInt32 is a little-endian uint32 on the wire.
	UInt32 uint32
	// UInt64 is a little-endian uint64 on the wire.
	UInt64 uint64
	// String is UTF-8 text of at most 255 bytes.
	String string
	// Boolean keeps the raw wire byte. Only 0x01 is true; any other byte reads
	// as false but is written back unchanged.
	Boolean byte
)

// Boolean wire values written by the editor.
const (
	False Boolean = 0x00
	True  Boolean = 0x01
)

// Bool returns the Boolean for b.
func Bool(b bool) Boolean {
	if b {
		return True
	}

	return False
}

// Bool reports whether the wire byte is 0x01.
func (b Boolean) Bool() bool { return b == True }

// Opaque is a fixed-width payload the codec does not interpret. It is kept
// verbatim so the tree encodes back to the exact input bytes.
type Opaque struct {
	Code    format.Tag
	Payload []byte
}

func (UInt16) Tag() format.Tag { return format.TagUInt16 }
func (UInt32) Tag() format.Tag { return format.TagUInt32 }
func (UInt64) Tag() format.Tag { return format.TagUInt64 }
func (String) Tag() format.Tag { return format.TagString }
func (Boolean) Tag() format.Tag { return format.TagBoolean }
func (o Opaque) Tag() format.Tag {
	return o.Code
}

// Pair is one key/value entry of a Table.
type Pair struct {
	Key   Value
	Value Value
}

// Table is an ordered list of pairs. Order is significant and preserved by
// decode, edit and encode.
type Table struct {
	Pairs []Pair
}

// NewTable returns a table holding pairs.
func NewTable(pairs ...Pair) *Table {
	return &Table{Pairs: pairs}
}

func (*Table) Tag() format.Tag { return format.TagTable }

// Len returns the number of pairs.
func (t *Table) Len() int {
	return len(t.Pairs)
}

// Clone returns a deep copy of v. Opaque payloads are copied so the clone
// does not alias the decoded buffer.
func Clone(v Value) Value {
	switch x := v.(type) {
	case *Table:
		pairs := make([]Pair, len(x.Pairs))
		for i, p := range x.Pairs {
			pairs[i] = Pair{Key: Clone(p.Key), Value: Clone(p.Value)}
		}

		return &Table{Pairs: pairs}
	case Opaque:
		return Opaque{Code: x.Code, Payload: bytes.Clone(x.Payload)}
	default:
		return v
	}
}

// Equal reports whether a and b are the same tree, including pair order and
// raw Boolean bytes.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case *Table:
		y, ok := b.(*Table)
		if !ok || len(x.Pairs) != len(y.Pairs) {
			return false
		}
		for i := range x.Pairs {
			if !Equal(x.Pairs[i].Key, y.Pairs[i].Key) || !Equal(x.Pairs[i].Value, y.Pairs[i].Value) {
				return false
			}
		}

		return true
	case Opaque:
		y, ok := b.(Opaque)
		return ok && x.Code == y.Code && bytes.Equal(x.Payload, y.Payload)
	default:
		return a == b
	}
}
