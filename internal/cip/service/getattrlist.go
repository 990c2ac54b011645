package service

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/spec"
)

const layerGetAttributeList = "get attribute list"

// Attribute is one element of a batched attribute read. Data is empty,
// never nil, when Status is nonzero.
type Attribute struct {
	ID     uint16
	Status uint16
	Data   []byte
}

// GetAttributeList reads several attributes of one instance in a single
// request. The reply does not describe value widths, so the caller supplies
// one size per requested id.
type GetAttributeList struct {
	path  []byte
	ids   []uint16
	sizes []int
}

// NewGetAttributeList validates ids against sizes. A count mismatch is a
// *ContractError.
func NewGetAttributeList(path []byte, ids []uint16, sizes []int) (*GetAttributeList, error) {
	code := spec.CIPServiceGetAttributeList
	if len(ids) != len(sizes) {
		return nil, contractf(code, "%d attribute ids but %d size hints", len(ids), len(sizes))
	}
	if len(ids) == 0 {
		return nil, contractf(code, "no attribute ids")
	}
	if len(ids) > 0xFFFF {
		return nil, contractf(code, "%d attribute ids exceed 16-bit count", len(ids))
	}
	for i, size := range sizes {
		if size < 0 {
			return nil, contractf(code, "negative size hint %d for attribute 0x%02X", size, ids[i])
		}
	}
	return &GetAttributeList{
		path:  append([]byte(nil), path...),
		ids:   append([]uint16(nil), ids...),
		sizes: append([]int(nil), sizes...),
	}, nil
}

func (s *GetAttributeList) Code() protocol.ServiceCode { return spec.CIPServiceGetAttributeList }

func (s *GetAttributeList) Path() []byte { return s.path }

// IDs returns the requested attribute ids in request order.
func (s *GetAttributeList) IDs() []uint16 { return append([]uint16(nil), s.ids...) }

// EncodeRequest writes count:u16 followed by the ids.
func (s *GetAttributeList) EncodeRequest(w *codec.Writer) error {
	w.WriteUint16(uint16(len(s.ids)))
	for _, id := range s.ids {
		w.WriteUint16(id)
	}
	return nil
}

// DecodeResponse walks the attributes strictly in order: id, status and,
// only for status 0, exactly the hinted number of data bytes.
func (s *GetAttributeList) DecodeResponse(body *codec.Buffer) ([]Attribute, error) {
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
	if int(count) > len(s.sizes) {
		return nil, codec.Framingf(layerGetAttributeList, "reply lists %d attributes, %d requested", count, len(s.sizes))
	}

	attrs := make([]Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := r.Uint16(fmt.Sprintf("attribute %d id", i))
		if err != nil {
			return nil, err
		}
		status, err := r.Uint16(fmt.Sprintf("attribute 0x%02X status", id))
		if err != nil {
			return nil, err
		}
		data := []byte{}
		if status == 0 {
			data, err = r.CopyN(fmt.Sprintf("attribute 0x%02X data", id), s.sizes[i])
			if err != nil {
				return nil, err
			}
		}
		attrs = append(attrs, Attribute{ID: id, Status: status, Data: data})
	}
	if err := expectEnd(r, layerGetAttributeList); err != nil {
		return nil, err
	}
	return attrs, nil
}
