package pcap

// Hex dump utilities for packet analysis

import (
	"fmt"
	"strings"

	"github.com/tturner/cipwire/internal/enip"
)

// HexDump creates a hex dump of packet data
func HexDump(data []byte, width int) string {
	if width <= 0 {
		width = 16
	}

	var sb strings.Builder
	for i := 0; i < len(data); i += width {
		sb.WriteString(fmt.Sprintf("%04x: ", i))

		for j := 0; j < width; j++ {
			if i+j < len(data) {
				sb.WriteString(fmt.Sprintf("%02x ", data[i+j]))
			} else {
				sb.WriteString("   ")
			}
		}

		sb.WriteString(" |")
		for j := 0; j < width && i+j < len(data); j++ {
			b := data[i+j]
			if b >= 32 && b < 127 {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}

	return sb.String()
}

// FormatFrame dumps an encapsulation frame with its header and data split.
func FormatFrame(frame []byte, width int) string {
	if len(frame) < enip.HeaderSize {
		return HexDump(frame, width)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ENIP Header (%d bytes):\n", enip.HeaderSize))
	sb.WriteString(HexDump(frame[:enip.HeaderSize], width))
	if len(frame) > enip.HeaderSize {
		sb.WriteString("\nENIP Data:\n")
		sb.WriteString(HexDump(frame[enip.HeaderSize:], width))
	}
	return sb.String()
}
