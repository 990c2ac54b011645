package service

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
)

func TestReadTagFragmentedEncode(t *testing.T) {
	svc, err := NewReadTagFragmented(mustTag(t, "Tag1"), 10, 0x100)
	if err != nil {
		t.Fatalf("NewReadTagFragmented failed: %v", err)
	}
	w := codec.NewWriter(16)
	if err := svc.EncodeRequest(w); err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	want := []byte{0x0A, 0x00, 0x00, 0x01, 0x00, 0x00}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("EncodeRequest() = % X, want % X", w.Bytes(), want)
	}
}

func TestReadTagFragmentedDecode(t *testing.T) {
	svc, err := NewReadTagFragmented(mustTag(t, "Udt"), 1, 0)
	if err != nil {
		t.Fatalf("NewReadTagFragmented failed: %v", err)
	}
	tests := []struct {
		name   string
		body   []byte
		want   TagData
		errNil bool
	}{
		{"dint", []byte{0xC4, 0x00, 0x2A, 0x00, 0x00, 0x00}, TagData{Type: protocol.CIPTypeDINT, Data: []byte{0x2A, 0, 0, 0}}, true},
		{"struct", []byte{0xA0, 0x02, 0x34, 0x12, 0x01, 0x02}, TagData{Type: protocol.CIPTypeStruct, StructHandle: 0x1234, Data: []byte{0x01, 0x02}}, true},
		{"type only", []byte{0xC1, 0x00}, TagData{Type: protocol.CIPTypeBOOL, Data: []byte{}}, true},
		{"missing type", []byte{0xC4}, TagData{}, false},
		{"missing handle", []byte{0xA0, 0x02, 0x34}, TagData{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.DecodeResponse(codec.CopyBuffer(tt.body))
			if !tt.errNil {
				var short *codec.ShortError
				if !errors.As(err, &short) {
					t.Fatalf("expected *codec.ShortError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeResponse failed: %v", err)
			}
			if got.Type != tt.want.Type || got.StructHandle != tt.want.StructHandle || !bytes.Equal(got.Data, tt.want.Data) {
				t.Fatalf("DecodeResponse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadTagFragmentedContinuation(t *testing.T) {
	svc, err := NewReadTagFragmented(mustTag(t, "Array"), 8, 4)
	if err != nil {
		t.Fatalf("NewReadTagFragmented failed: %v", err)
	}

	var acc TagData
	first := TagData{Type: protocol.CIPTypeDINT, Data: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	acc = svc.Merge(acc, first)
	if acc.Type != protocol.CIPTypeDINT || !bytes.Equal(acc.Data, first.Data) {
		t.Fatalf("Merge(zero, first) = %+v, want %+v", acc, first)
	}

	next := svc.Next(acc).(*ReadTagFragmented)
	if next.Offset() != 12 {
		t.Fatalf("continuation offset = %d, want 12", next.Offset())
	}
	if svc.Offset() != 4 {
		t.Fatalf("Next modified the original request")
	}

	acc = next.Merge(acc, TagData{Type: protocol.CIPTypeDINT, Data: []byte{9, 10, 11, 12}})
	third := next.Next(acc).(*ReadTagFragmented)
	if third.Offset() != 16 {
		t.Fatalf("second continuation offset = %d, want 16", third.Offset())
	}
	if !bytes.Equal(acc.Data, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}) {
		t.Fatalf("merged data = % X", acc.Data)
	}
	if !bytes.Equal(first.Data, []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("Merge modified a fragment")
	}
}

func TestNewReadTagFragmentedContract(t *testing.T) {
	var contract *ContractError
	if _, err := NewReadTagFragmented(nil, 1, 0); !errors.As(err, &contract) {
		t.Fatalf("expected ContractError for empty path, got %v", err)
	}
	if _, err := NewReadTagFragmented(mustTag(t, "T"), 0, 0); !errors.As(err, &contract) {
		t.Fatalf("expected ContractError for zero elements, got %v", err)
	}
}
