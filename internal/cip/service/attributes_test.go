package service

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
)

func TestGetAttributesAll(t *testing.T) {
	svc := NewGetAttributesAll(identityPath)
	w := codec.NewWriter(8)
	if err := Encode(w, svc); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(w.Bytes(), []byte{0x01, 0x02, 0x20, 0x01, 0x24, 0x01}) {
		t.Fatalf("Encode() = % X", w.Bytes())
	}
	body := codec.CopyBuffer([]byte{0x01, 0x00, 0x0E, 0x00})
	got, err := svc.DecodeResponse(body)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x00, 0x0E, 0x00}) || !body.Released() {
		t.Fatalf("unexpected decode %X released=%v", got, body.Released())
	}
}

func TestGetAttributeSingleSizeHint(t *testing.T) {
	path := protocol.LogicalPath{Class: 0x01, Instance: 0x01, Attribute: 0x01}.Encode()
	tests := []struct {
		name    string
		size    int
		body    []byte
		wantErr bool
	}{
		{"no hint", 0, []byte{0x01, 0x02, 0x03}, false},
		{"exact", 2, []byte{0x01, 0x00}, false},
		{"short", 2, []byte{0x01}, true},
		{"long", 2, []byte{0x01, 0x00, 0x00}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewGetAttributeSingle(path, tt.size)
			if err != nil {
				t.Fatalf("NewGetAttributeSingle failed: %v", err)
			}
			got, err := svc.DecodeResponse(codec.CopyBuffer(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !bytes.Equal(got, tt.body) {
				t.Fatalf("DecodeResponse() = % X", got)
			}
		})
	}

	var contract *ContractError
	if _, err := NewGetAttributeSingle(path, -1); !errors.As(err, &contract) {
		t.Fatalf("expected ContractError, got %v", err)
	}
}

func TestSetAttributeSingleTakesValue(t *testing.T) {
	path := protocol.LogicalPath{Class: 0xF5, Instance: 0x01, Attribute: 0x06}.Encode()
	value := codec.CopyBuffer([]byte{0x04, 0x00, 'h', 'o', 's', 't'})
	svc, err := NewSetAttributeSingle(path, value)
	if err != nil {
		t.Fatalf("NewSetAttributeSingle failed: %v", err)
	}
	if _, err := value.Bytes(); !errors.Is(err, codec.ErrReleased) {
		t.Fatalf("expected caller's value to be released, got %v", err)
	}
	if _, err := NewSetAttributeSingle(path, value); !errors.Is(err, codec.ErrReleased) {
		t.Fatalf("reusing a consumed value should report ErrReleased, got %v", err)
	}

	for i := 0; i < 2; i++ {
		w := codec.NewWriter(16)
		if err := svc.EncodeRequest(w); err != nil {
			t.Fatalf("EncodeRequest failed: %v", err)
		}
		if !bytes.Equal(w.Bytes(), []byte{0x04, 0x00, 'h', 'o', 's', 't'}) {
			t.Fatalf("EncodeRequest() pass %d = % X", i, w.Bytes())
		}
	}

	if _, err := svc.DecodeResponse(codec.EmptyBuffer()); err != nil {
		t.Fatalf("DecodeResponse(empty) failed: %v", err)
	}
	var framing *codec.FramingError
	if _, err := svc.DecodeResponse(codec.CopyBuffer([]byte{0x00})); !errors.As(err, &framing) {
		t.Fatalf("expected FramingError for unexpected reply data, got %v", err)
	}
}

func TestSetAttributeList(t *testing.T) {
	svc, err := NewSetAttributeList(identityPath, []AttributeValue{
		{ID: 0x05, Data: []byte{0x01, 0x00}},
		{ID: 0x07, Data: []byte{0xFF}},
	})
	if err != nil {
		t.Fatalf("NewSetAttributeList failed: %v", err)
	}
	w := codec.NewWriter(16)
	if err := svc.EncodeRequest(w); err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	want := []byte{0x02, 0x00, 0x05, 0x00, 0x01, 0x00, 0x07, 0x00, 0xFF}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("EncodeRequest() = % X, want % X", w.Bytes(), want)
	}

	got, err := svc.DecodeResponse(codec.CopyBuffer([]byte{0x02, 0x00, 0x05, 0x00, 0x00, 0x00, 0x07, 0x00, 0x0E, 0x00}))
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	if len(got) != 2 || got[1].Status != 0x0E || got[1].Data == nil {
		t.Fatalf("unexpected statuses: %+v", got)
	}

	var short *codec.ShortError
	if _, err := svc.DecodeResponse(codec.CopyBuffer([]byte{0x02, 0x00, 0x05, 0x00, 0x00, 0x00})); !errors.As(err, &short) {
		t.Fatalf("expected ShortError, got %v", err)
	}

	var contract *ContractError
	if _, err := NewSetAttributeList(identityPath, nil); !errors.As(err, &contract) {
		t.Fatalf("expected ContractError, got %v", err)
	}
}
