package protocol

import (
	"fmt"
	"strings"
)

// BuildSymbolicEPATH builds an EPATH using ANSI extended symbolic segments (0x91).
func BuildSymbolicEPATH(tag string) []byte {
	if tag == "" {
		return nil
	}
	var epath []byte
	for _, seg := range strings.Split(tag, ".") {
		if seg == "" {
			continue
		}
		epath = append(epath, SegmentSymbolic, byte(len(seg)))
		epath = append(epath, seg...)
		if len(seg)%2 != 0 {
			epath = append(epath, 0x00)
		}
	}
	return epath
}

// SymbolicPath returns the padded routing path for a tag name.
func SymbolicPath(tag string) ([]byte, error) {
	if tag == "" {
		return nil, fmt.Errorf("tag name is required")
	}
	for _, seg := range strings.Split(tag, ".") {
		if len(seg) > 0xFF {
			return nil, fmt.Errorf("tag segment %q exceeds 255 bytes", seg[:16]+"...")
		}
	}
	segs := BuildSymbolicEPATH(tag)
	if len(segs)/2 > 0xFF {
		return nil, fmt.Errorf("tag path of %d bytes exceeds 255 words", len(segs))
	}
	return append([]byte{uint8(len(segs) / 2)}, segs...), nil
}

// DecodeSymbolicEPATH decodes ANSI extended symbolic segments (0x91) into a tag name.
func DecodeSymbolicEPATH(data []byte) (string, error) {
	if len(data) < 2 || data[0] != SegmentSymbolic {
		return "", fmt.Errorf("not a symbolic EPATH")
	}
	offset := 0
	var segments []string
	for offset < len(data) {
		if data[offset] == 0x00 {
			offset++
			continue
		}
		if data[offset] != SegmentSymbolic {
			return "", fmt.Errorf("invalid symbolic segment: 0x%02X", data[offset])
		}
		if len(data) < offset+2 {
			return "", fmt.Errorf("incomplete symbolic segment length")
		}
		length := int(data[offset+1])
		offset += 2
		if len(data) < offset+length {
			return "", fmt.Errorf("incomplete symbolic segment data")
		}
		segments = append(segments, string(data[offset:offset+length]))
		offset += length
		if length%2 != 0 && offset < len(data) {
			offset++
		}
	}
	return strings.Join(segments, "."), nil
}
