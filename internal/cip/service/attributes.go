package service

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/spec"
)

// GetAttributesAll reads every attribute of an instance as one opaque block.
type GetAttributesAll struct {
	path []byte
}

func NewGetAttributesAll(path []byte) *GetAttributesAll {
	return &GetAttributesAll{path: append([]byte(nil), path...)}
}

func (s *GetAttributesAll) Code() protocol.ServiceCode { return spec.CIPServiceGetAttributeAll }
func (s *GetAttributesAll) Path() []byte               { return s.path }

func (s *GetAttributesAll) EncodeRequest(*codec.Writer) error { return nil }

// DecodeResponse returns an owned copy of the reply body.
func (s *GetAttributesAll) DecodeResponse(body *codec.Buffer) ([]byte, error) {
	return body.Take()
}

// GetAttributeSingle reads one attribute. When Size is positive the reply
// must carry exactly that many bytes.
type GetAttributeSingle struct {
	path []byte
	size int
}

func NewGetAttributeSingle(path []byte, size int) (*GetAttributeSingle, error) {
	if size < 0 {
		return nil, contractf(spec.CIPServiceGetAttributeSingle, "negative size hint %d", size)
	}
	return &GetAttributeSingle{path: append([]byte(nil), path...), size: size}, nil
}

func (s *GetAttributeSingle) Code() protocol.ServiceCode { return spec.CIPServiceGetAttributeSingle }
func (s *GetAttributeSingle) Path() []byte               { return s.path }

func (s *GetAttributeSingle) EncodeRequest(*codec.Writer) error { return nil }

func (s *GetAttributeSingle) DecodeResponse(body *codec.Buffer) ([]byte, error) {
	data, err := body.Take()
	if err != nil {
		return nil, err
	}
	if s.size == 0 {
		return data, nil
	}
	switch {
	case len(data) < s.size:
		return nil, &codec.ShortError{Field: "attribute value", Offset: 0, Need: s.size, Have: len(data)}
	case len(data) > s.size:
		return nil, codec.Framingf("get attribute single", "%d unexpected trailing bytes at offset %d", len(data)-s.size, s.size)
	}
	return data, nil
}

// SetAttributeSingle writes one attribute value. The reply body is empty.
type SetAttributeSingle struct {
	path  []byte
	value []byte
}

// NewSetAttributeSingle takes ownership of value and releases it.
func NewSetAttributeSingle(path []byte, value *codec.Buffer) (*SetAttributeSingle, error) {
	data, err := value.Take()
	if err != nil {
		return nil, fmt.Errorf("set attribute single value: %w", err)
	}
	return &SetAttributeSingle{path: append([]byte(nil), path...), value: data}, nil
}

func (s *SetAttributeSingle) Code() protocol.ServiceCode { return spec.CIPServiceSetAttributeSingle }
func (s *SetAttributeSingle) Path() []byte               { return s.path }

func (s *SetAttributeSingle) EncodeRequest(w *codec.Writer) error {
	_, err := w.Write(s.value)
	return err
}

func (s *SetAttributeSingle) DecodeResponse(body *codec.Buffer) (struct{}, error) {
	defer body.Release()
	raw, err := body.Bytes()
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, expectEnd(codec.NewReader(raw), "set attribute single")
}
