// Package pksave reads, edits and rewrites save containers: a single-entry
// archive whose DEFLATE-compressed entry is an envelope around a tagged-value
// tree.
//
// # Pipeline
//
//	container ─ archive.Parse ─ Extract ─ envelope.Unwrap ─ codec.DecodeRoot ─▶ *value.Table
//	*value.Table ─ codec ─ envelope.WrapFunc ─ archive.Rebuild ─▶ container
//
// Every stage fails with a sentinel from package errs; nothing is repaired
// or guessed.
//
// # Basic Usage
//
//	doc, err := pksave.Open(data,
//	    pksave.WithEnvelopeMagic([4]byte{'S', 'A', 'V', '1'}),
//	    pksave.WithEnvelopeChecksum(checksum.IEEE),
//	)
//	if err != nil {
//	    return err
//	}
//
//	if err := doc.Set([]string{"player", "tutorial_done"}, value.True); err != nil {
//	    return err
//	}
//
//	out, err := doc.Bytes()
//
// The envelope magic and checksum have no defaults: both belong to the game
// that wrote the file and must be supplied.
package pksave

import (
	"fmt"

	"github.com/arloliu/pksave/archive"
	"github.com/arloliu/pksave/codec"
	"github.com/arloliu/pksave/cursor"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
	"github.com/arloliu/pksave/internal/pool"
	"github.com/arloliu/pksave/value"
)

// Document is a decoded save container.
//
// Root may be edited freely, directly or through Set; Bytes serializes
// whatever it holds at the time of the call. A Document is not safe for
// concurrent use.
type Document struct {
	// Root is the decoded root table.
	Root *value.Table
	// Entry is the local header of the archive entry the document came from.
	Entry archive.LocalHeader
	// Magic is the envelope marker.
	Magic [4]byte

	p *pipeline
}

// Open decodes a container.
//
// The container must hold exactly one DEFLATE entry named archive.EntryName,
// and its envelope must declare exactly one root table.
func Open(data []byte, opts ...Option) (*Document, error) {
	p, err := newPipeline(opts)
	if err != nil {
		return nil, err
	}

	entry, err := archive.Parse(data)
	if err != nil {
		return nil, err
	}
	if entry.Name != archive.EntryName {
		return nil, fmt.Errorf("%w: entry %q, want %q", errs.ErrInvalidFormat, entry.Name, archive.EntryName)
	}
	if entry.Header.Method != format.MethodDeflate {
		return nil, fmt.Errorf("%w: entry uses %s, rebuilt containers always use %s",
			errs.ErrUnsupportedCompression, entry.Header.Method, format.MethodDeflate)
	}

	raw, err := entry.Extract(p.deflate)
	if err != nil {
		return nil, err
	}

	env, err := p.framer.Unwrap(raw)
	if err != nil {
		return nil, err
	}

	root, err := codec.DecodeRoot(cursor.New(env.Payload))
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	return &Document{
		Root:  root,
		Entry: entry.Header,
		Magic: env.Header.Magic,
		p:     p,
	}, nil
}

// Build serializes root into a new container.
func Build(root *value.Table, opts ...Option) ([]byte, error) {
	p, err := newPipeline(opts)
	if err != nil {
		return nil, err
	}

	return p.build(root)
}

// Lookup returns the slot at path below Root, or nil. Assigning through the
// returned pointer edits the document.
func (d *Document) Lookup(path ...string) *value.Value {
	return d.Root.Lookup(path...)
}

// Set replaces or appends the field at path. Every table along path except
// the last element must already exist.
func (d *Document) Set(path []string, v value.Value) error {
	return value.SetPath(d.Root, path, v)
}

// Envelope returns the framed payload for the current Root, before
// compression.
func (d *Document) Envelope() ([]byte, error) {
	return d.p.wrap(d.Root)
}

// Bytes serializes the current Root into a new container.
func (d *Document) Bytes() ([]byte, error) {
	return d.p.build(d.Root)
}

func (p *pipeline) wrap(root *value.Table) ([]byte, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root table", errs.ErrInvalidFormat)
	}

	return p.framer.WrapFunc(1, func(bb *pool.ByteBuffer) error {
		enc := codec.NewEncoderTo(bb)
		defer enc.Reset()

		return enc.WriteRoot(root)
	})
}

func (p *pipeline) build(root *value.Table) ([]byte, error) {
	env, err := p.wrap(root)
	if err != nil {
		return nil, err
	}

	return archive.Rebuild(env, p.deflate)
}
