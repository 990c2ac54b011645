package pcap

import (
	"strings"
	"testing"

	"github.com/tturner/cipwire/internal/enip"
)

func TestHexDump(t *testing.T) {
	data := []byte("ENIP\x00\x01\x02\x03\x04\x05\x06\x07\x08\x09\x0A\x0B\x0C")

	dump := HexDump(data, 16)
	lines := strings.Split(strings.TrimSuffix(dump, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), dump)
	}
	if !strings.HasPrefix(lines[0], "0000: 45 4e 49 50 00 01") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[0], "|ENIP............|") {
		t.Errorf("unexpected ASCII column %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0010: 0c ") {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestHexDumpDefaultWidth(t *testing.T) {
	if HexDump(make([]byte, 16), 0) != HexDump(make([]byte, 16), 16) {
		t.Error("width 0 should default to 16")
	}
	if HexDump(nil, 8) != "" {
		t.Error("empty data should produce no output")
	}
}

func TestFormatFrame(t *testing.T) {
	frame := enip.BuildRegisterSession([8]byte{})
	out := FormatFrame(frame, 16)
	if !strings.Contains(out, "ENIP Header (24 bytes):") || !strings.Contains(out, "ENIP Data:") {
		t.Errorf("unexpected frame dump:\n%s", out)
	}
	if FormatFrame([]byte{0x01}, 16) != HexDump([]byte{0x01}, 16) {
		t.Error("short frames should fall back to a plain dump")
	}
}
