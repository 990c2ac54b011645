package protocol

// Padded EPATH helpers. The envelope treats the routing path as opaque
// bytes; these build and read the common logical class/instance/attribute
// form.

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
)

// Logical segment type bytes (8-bit format; OR with 0x01 for 16-bit).
const (
	SegmentClassID     uint8 = 0x20
	SegmentInstanceID  uint8 = 0x24
	SegmentMemberID    uint8 = 0x28
	SegmentConnPoint   uint8 = 0x2C
	SegmentAttributeID uint8 = 0x30
	SegmentSymbolic    uint8 = 0x91

	segmentFormat16 uint8 = 0x01
)

// LogicalPath addresses a class, instance and optional attribute.
type LogicalPath struct {
	Class     uint16
	Instance  uint16
	Attribute uint16
	// HasAttribute includes the attribute segment even when Attribute is 0.
	HasAttribute bool
}

// String returns the path in class/instance/attribute notation.
func (p LogicalPath) String() string {
	if p.HasAttribute || p.Attribute != 0 {
		return fmt.Sprintf("0x%02X/0x%02X/0x%02X", p.Class, p.Instance, p.Attribute)
	}
	return fmt.Sprintf("0x%02X/0x%02X", p.Class, p.Instance)
}

// Segments returns the logical segments without the word count prefix.
func (p LogicalPath) Segments() []byte {
	var segs []byte
	segs = appendLogical(segs, SegmentClassID, p.Class)
	segs = appendLogical(segs, SegmentInstanceID, p.Instance)
	if p.HasAttribute || p.Attribute != 0 {
		segs = appendLogical(segs, SegmentAttributeID, p.Attribute)
	}
	return segs
}

// Encode returns the padded path: size in words followed by the segments.
func (p LogicalPath) Encode() []byte {
	segs := p.Segments()
	return append([]byte{uint8(len(segs) / 2)}, segs...)
}

func appendLogical(dst []byte, segType uint8, id uint16) []byte {
	if id <= 0xFF {
		return append(dst, segType, uint8(id))
	}
	// 16-bit segments carry a pad byte so the value stays word aligned.
	dst = append(dst, segType|segmentFormat16, 0x00)
	return codec.AppendUint16(dst, id)
}

// ParseLogicalPath reads a padded logical path. Trailing non-logical
// segments are rejected.
func ParseLogicalPath(path []byte) (LogicalPath, error) {
	var p LogicalPath
	r := codec.NewReader(path)
	words, err := r.Uint8("path size")
	if err != nil {
		return p, fmt.Errorf("decode logical path: %w", err)
	}
	segs, err := r.Next("path segments", int(words)*2)
	if err != nil {
		return p, fmt.Errorf("decode logical path: %w", err)
	}
	if r.Remaining() != 0 {
		return p, codec.Framingf("epath", "%d bytes after declared path of %d words", r.Remaining(), words)
	}

	sr := codec.NewReader(segs)
	seen := map[uint8]bool{}
	for sr.Remaining() > 0 {
		segType, _ := sr.Uint8("segment type")
		var id uint16
		switch segType & segmentFormat16 {
		case 0:
			v, err := sr.Uint8("segment value")
			if err != nil {
				return p, fmt.Errorf("decode logical path: %w", err)
			}
			id = uint16(v)
		default:
			if _, err := sr.Uint8("segment pad"); err != nil {
				return p, fmt.Errorf("decode logical path: %w", err)
			}
			v, err := sr.Uint16("segment value")
			if err != nil {
				return p, fmt.Errorf("decode logical path: %w", err)
			}
			id = v
		}
		base := segType &^ segmentFormat16
		if seen[base] {
			return p, codec.Framingf("epath", "repeated segment 0x%02X", base)
		}
		seen[base] = true
		switch base {
		case SegmentClassID:
			p.Class = id
		case SegmentInstanceID:
			p.Instance = id
		case SegmentAttributeID:
			p.Attribute = id
			p.HasAttribute = true
		default:
			return p, codec.Framingf("epath", "unsupported segment 0x%02X", segType)
		}
	}
	if !seen[SegmentClassID] {
		return p, codec.Framingf("epath", "missing class segment")
	}
	return p, nil
}
