package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tturner/cipwire/internal/cip/codec"
)

func TestLogicalPathEncode(t *testing.T) {
	tests := []struct {
		name string
		path LogicalPath
		want []byte
	}{
		{"identity instance", LogicalPath{Class: 0x01, Instance: 0x01}, []byte{0x02, 0x20, 0x01, 0x24, 0x01}},
		{"with attribute", LogicalPath{Class: 0xF5, Instance: 0x01, Attribute: 0x05}, []byte{0x03, 0x20, 0xF5, 0x24, 0x01, 0x30, 0x05}},
		{"attribute zero", LogicalPath{Class: 0x01, Instance: 0x00, HasAttribute: true}, []byte{0x03, 0x20, 0x01, 0x24, 0x00, 0x30, 0x00}},
		{"16-bit class", LogicalPath{Class: 0x0300, Instance: 0x01}, []byte{0x03, 0x21, 0x00, 0x00, 0x03, 0x24, 0x01}},
		{"16-bit instance", LogicalPath{Class: 0x02, Instance: 0x1234}, []byte{0x03, 0x20, 0x02, 0x25, 0x00, 0x34, 0x12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.path.Encode()
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("Encode() = % X, want % X", got, tt.want)
			}
			back, err := ParseLogicalPath(got)
			if err != nil {
				t.Fatalf("ParseLogicalPath failed: %v", err)
			}
			want := tt.path
			if want.Attribute != 0 {
				want.HasAttribute = true
			}
			if back != want {
				t.Fatalf("ParseLogicalPath() = %+v, want %+v", back, want)
			}
		})
	}
}

func TestParseLogicalPathErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short segments", []byte{0x02, 0x20, 0x01}},
		{"trailing bytes", []byte{0x01, 0x20, 0x01, 0xFF}},
		{"no class", []byte{0x01, 0x24, 0x01}},
		{"repeated class", []byte{0x02, 0x20, 0x01, 0x20, 0x02}},
		{"symbolic", []byte{0x02, 0x91, 0x02, 'A', 'B'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLogicalPath(tt.data); err == nil {
				t.Fatalf("expected error for % X", tt.data)
			}
		})
	}

	_, err := ParseLogicalPath([]byte{0x03, 0x20})
	var short *codec.ShortError
	if !errors.As(err, &short) {
		t.Fatalf("expected ShortError, got %v", err)
	}
}

func TestSymbolicPath(t *testing.T) {
	path, err := SymbolicPath("Prog.Tag1")
	if err != nil {
		t.Fatalf("SymbolicPath failed: %v", err)
	}
	want := []byte{0x06, 0x91, 0x04, 'P', 'r', 'o', 'g', 0x91, 0x04, 'T', 'a', 'g', '1'}
	if !bytes.Equal(path, want) {
		t.Fatalf("SymbolicPath() = % X, want % X", path, want)
	}
	tag, err := DecodeSymbolicEPATH(path[1:])
	if err != nil {
		t.Fatalf("DecodeSymbolicEPATH failed: %v", err)
	}
	if tag != "Prog.Tag1" {
		t.Fatalf("DecodeSymbolicEPATH() = %q", tag)
	}

	odd := BuildSymbolicEPATH("Abc")
	if !bytes.Equal(odd, []byte{0x91, 0x03, 'A', 'b', 'c', 0x00}) {
		t.Fatalf("BuildSymbolicEPATH(Abc) = % X", odd)
	}
	if _, err := SymbolicPath(""); err == nil {
		t.Fatalf("expected error for empty tag")
	}
}
