package service

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/spec"
)

// AttributeValue is one attribute write.
type AttributeValue struct {
	ID   uint16
	Data []byte
}

// SetAttributeList writes several attributes in one request. The reply
// carries a status per attribute and no data.
type SetAttributeList struct {
	path   []byte
	values []AttributeValue
}

func NewSetAttributeList(path []byte, values []AttributeValue) (*SetAttributeList, error) {
	code := spec.CIPServiceSetAttributeList
	if len(values) == 0 {
		return nil, contractf(code, "no attribute values")
	}
	if len(values) > 0xFFFF {
		return nil, contractf(code, "%d attribute values exceed 16-bit count", len(values))
	}
	owned := make([]AttributeValue, len(values))
	for i, v := range values {
		owned[i] = AttributeValue{ID: v.ID, Data: append([]byte{}, v.Data...)}
	}
	return &SetAttributeList{path: append([]byte(nil), path...), values: owned}, nil
}

func (s *SetAttributeList) Code() protocol.ServiceCode { return spec.CIPServiceSetAttributeList }
func (s *SetAttributeList) Path() []byte               { return s.path }

// EncodeRequest writes count:u16 then id:u16 and value bytes per attribute.
func (s *SetAttributeList) EncodeRequest(w *codec.Writer) error {
	w.WriteUint16(uint16(len(s.values)))
	for _, v := range s.values {
		w.WriteUint16(v.ID)
		if _, err := w.Write(v.Data); err != nil {
			return err
		}
	}
	return nil
}

// DecodeResponse returns one Attribute per written id with empty data.
func (s *SetAttributeList) DecodeResponse(body *codec.Buffer) ([]Attribute, error) {
	defer body.Release()
	raw, err := body.Bytes()
	if err != nil {
		return nil, err
	}
	r := codec.NewReader(raw)
	count, err := r.Uint16("attribute count")
	if err != nil {
		return nil, err
	}
	if int(count) > len(s.values) {
		return nil, codec.Framingf("set attribute list", "reply lists %d attributes, %d written", count, len(s.values))
	}
	out := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := r.Uint16(fmt.Sprintf("attribute %d id", i))
		if err != nil {
			return nil, err
		}
		status, err := r.Uint16(fmt.Sprintf("attribute 0x%02X status", id))
		if err != nil {
			return nil, err
		}
		out = append(out, Attribute{ID: id, Status: status, Data: []byte{}})
	}
	if err := expectEnd(r, "set attribute list"); err != nil {
		return nil, err
	}
	return out, nil
}
