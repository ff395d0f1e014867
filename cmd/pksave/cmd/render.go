package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
	"github.com/arloliu/pksave/value"
)

// YAML tags for variants plain YAML cannot tell apart.
const (
	tagUInt16  = "!u16"
	tagUInt32  = "!u32"
	tagUInt64  = "!u64"
	tagOpaque  = "!opaque"
	tagRawBool = "!bool"
)

func scalar(tag, text string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: text}
}

// renderValue converts v to a YAML node. Tables become mappings in wire
// order; integers carry their width as a local tag.
func renderValue(v value.Value) *yaml.Node {
	switch x := v.(type) {
	case *value.Table:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range x.Pairs {
			n.Content = append(n.Content, renderValue(p.Key), renderValue(p.Value))
		}

		return n
	case value.String:
		return scalar("!!str", string(x))
	case value.Boolean:
		if x != value.True && x != value.False {
			return scalar(tagRawBool, fmt.Sprintf("0x%02X", byte(x)))
		}

		return scalar("!!bool", strconv.FormatBool(x.Bool()))
	case value.UInt16:
		return scalar(tagUInt16, strconv.FormatUint(uint64(x), 10))
	case value.UInt32:
		return scalar(tagUInt32, strconv.FormatUint(uint64(x), 10))
	case value.UInt64:
		return scalar(tagUInt64, strconv.FormatUint(uint64(x), 10))
	case value.Opaque:
		return scalar(tagOpaque, hex.EncodeToString(x.Payload))
	default:
		return scalar("!!null", "~")
	}
}

func writeYAML(w io.Writer, n *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return err
	}

	return enc.Close()
}

// parseValue parses text as a value of kind. An empty kind takes the type
// of current, the value being replaced.
func parseValue(kind, text string, current value.Value) (value.Value, error) {
	if kind == "" {
		if current == nil {
			return nil, fmt.Errorf("%w: field does not exist, pass --type", errs.ErrPathNotFound)
		}
		kind = kindOf(current)
	}

	switch strings.ToLower(kind) {
	case "bool":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, err
		}

		return value.Bool(b), nil
	case "u16":
		n, err := strconv.ParseUint(text, 0, 16)
		if err != nil {
			return nil, err
		}

		return value.UInt16(n), nil
	case "u32":
		n, err := strconv.ParseUint(text, 0, 32)
		if err != nil {
			return nil, err
		}

		return value.UInt32(n), nil
	case "u64":
		n, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			return nil, err
		}

		return value.UInt64(n), nil
	case "string":
		return value.String(text), nil
	case "opaque":
		return parseOpaque(text)
	default:
		return nil, fmt.Errorf("%w: value type %q (want bool, u16, u32, u64, string or opaque)", errs.ErrUnknownName, kind)
	}
}

func parseOpaque(text string) (value.Value, error) {
	b, err := hex.DecodeString(text)
	if err != nil {
		return nil, err
	}

	for _, tag := range []format.Tag{format.TagOpaque8, format.TagOpaque12} {
		if width, _ := format.OpaqueWidth(tag); width == len(b) {
			return value.Opaque{Code: tag, Payload: b}, nil
		}
	}

	return nil, fmt.Errorf("%w: opaque value is %d bytes, want 8 or 12", errs.ErrInvalidFormat, len(b))
}

func kindOf(v value.Value) string {
	switch v.(type) {
	case value.Boolean:
		return "bool"
	case value.UInt16:
		return "u16"
	case value.UInt32:
		return "u32"
	case value.UInt64:
		return "u64"
	case value.String:
		return "string"
	case value.Opaque:
		return "opaque"
	default:
		return v.Tag().String()
	}
}
