package enip

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tturner/cipwire/internal/cip/codec"
)

func TestUnconnectedPacketRoundTrip(t *testing.T) {
	mr := []byte{0x03, 0x02, 0x20, 0x01, 0x24, 0x01, 0x02, 0x00, 0x01, 0x00, 0x02, 0x00}
	w := codec.NewWriter(0)
	if err := EncodePacket(w, NewUnconnectedPacket(codec.CopyBuffer(mr))); err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}

	encoded := w.Bytes()
	wantPrefix := []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0xB2, 0x00, byte(len(mr)), 0x00}
	if !bytes.HasPrefix(encoded, wantPrefix) {
		t.Fatalf("encoded prefix = % X, want % X", encoded[:len(wantPrefix)], wantPrefix)
	}

	packet, err := DecodePacket(codec.NewReader(encoded))
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if len(packet.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(packet.Items))
	}
	data, err := packet.UnconnectedData()
	if err != nil {
		t.Fatalf("UnconnectedData: %v", err)
	}
	got, _ := data.Bytes()
	if !bytes.Equal(got, mr) {
		t.Errorf("unconnected data = % X, want % X", got, mr)
	}

	packet.Release()
	if _, err := data.Bytes(); !errors.Is(err, codec.ErrReleased) {
		t.Errorf("payload after packet release: %v, want ErrReleased", err)
	}
}

func TestDecodePacketErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"count without items", []byte{0x01, 0x00, 0x00}},
		{"item data missing", []byte{0x01, 0x00, 0xB2, 0x00, 0x02, 0x00, 0x01}},
		{"bad null address length", []byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePacket(codec.NewReader(tt.data))
			var framing *codec.FramingError
			if !errors.As(err, &framing) {
				t.Fatalf("error = %v, want *codec.FramingError", err)
			}
		})
	}
}

func TestPacketWithoutUnconnectedData(t *testing.T) {
	w := codec.NewWriter(0)
	packet := &Packet{Items: []Item{ConnectedAddressItem{ConnectionID: 7}, NewConnectedDataItem(codec.CopyBuffer([]byte{0x01, 0x00}))}}
	if err := EncodePacket(w, packet); err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	decoded, err := DecodePacket(codec.NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if _, err := decoded.UnconnectedData(); err == nil {
		t.Fatal("expected error for packet without unconnected data item")
	}
	if decoded.Find(ItemConnectedData) == nil {
		t.Error("connected data item not found")
	}
}

func TestEncodePacketRollsBackOnError(t *testing.T) {
	first := codec.CopyBuffer([]byte{0x01, 0x00})
	oversized := codec.NewBuffer(make([]byte, 70000))
	packet := &Packet{Items: []Item{
		NullAddressItem{},
		NewConnectedDataItem(first),
		NewUnconnectedDataItem(oversized),
	}}

	w := codec.NewWriter(0)
	err := EncodePacket(w, packet)
	if err == nil {
		t.Fatal("expected error for oversized item")
	}
	if w.Len() != 0 {
		t.Errorf("writer length after failed packet = %d, want 0", w.Len())
	}
	for name, b := range map[string]*codec.Buffer{"encoded item": first, "failed item": oversized} {
		if !b.Released() {
			t.Errorf("%s payload not released", name)
		}
	}

	w.Write([]byte{0xAA})
	if err := EncodePacket(w, NewUnconnectedPacket(codec.NewBuffer(make([]byte, 70000)))); err == nil {
		t.Fatal("expected error for oversized unconnected packet")
	}
	if !bytes.Equal(w.Bytes(), []byte{0xAA}) {
		t.Errorf("writer = % X, want existing bytes kept", w.Bytes())
	}
}
