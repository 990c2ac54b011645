// Package enip implements the EtherNet/IP Common Packet Format (CPF) item
// framing and the small part of the encapsulation layer needed to locate
// CPF data inside captured frames.
package enip

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
)

// CPF item type ids.
const (
	ItemNullAddress      uint16 = 0x0000
	ItemConnectedAddress uint16 = 0x00A1
	ItemConnectedData    uint16 = 0x00B1
	ItemUnconnectedData  uint16 = 0x00B2
)

const layerCPF = "cpf"

// ItemHeaderSize is the size of the type id and length fields.
const ItemHeaderSize = 4

// Item is one type-length-value unit of a CPF packet.
//
// Payload hands out the item's payload buffer. EncodeItem consumes it, so an
// item carrying caller data can be encoded once.
type Item interface {
	TypeID() uint16
	Payload() *codec.Buffer
}

// UnconnectedDataItem carries an unconnected (UCMM) Message Router packet.
type UnconnectedDataItem struct {
	data *codec.Buffer
}

// NewUnconnectedDataItem takes ownership of data.
func NewUnconnectedDataItem(data *codec.Buffer) *UnconnectedDataItem {
	return &UnconnectedDataItem{data: data}
}

func (i *UnconnectedDataItem) TypeID() uint16 { return ItemUnconnectedData }

func (i *UnconnectedDataItem) Payload() *codec.Buffer { return i.data }

// ConnectedDataItem carries a connected (class 3) packet including its
// sequence count.
type ConnectedDataItem struct {
	data *codec.Buffer
}

// NewConnectedDataItem takes ownership of data.
func NewConnectedDataItem(data *codec.Buffer) *ConnectedDataItem {
	return &ConnectedDataItem{data: data}
}

func (i *ConnectedDataItem) TypeID() uint16 { return ItemConnectedData }

func (i *ConnectedDataItem) Payload() *codec.Buffer { return i.data }

// NullAddressItem is the empty address item used with unconnected data.
type NullAddressItem struct{}

func (NullAddressItem) TypeID() uint16 { return ItemNullAddress }

func (NullAddressItem) Payload() *codec.Buffer { return codec.EmptyBuffer() }

// ConnectedAddressItem addresses a connected data item by connection id.
type ConnectedAddressItem struct {
	ConnectionID uint32
}

func (ConnectedAddressItem) TypeID() uint16 { return ItemConnectedAddress }

func (i ConnectedAddressItem) Payload() *codec.Buffer {
	return codec.NewBuffer(codec.AppendUint32(nil, i.ConnectionID))
}

// RawItem holds an item whose type id this package does not model.
type RawItem struct {
	Type uint16
	Data *codec.Buffer
}

func (i *RawItem) TypeID() uint16 { return i.Type }

func (i *RawItem) Payload() *codec.Buffer { return i.Data }

// EncodeItem writes type id, a length placeholder and the payload, then
// backpatches the length with the number of payload bytes written. The
// payload buffer is released on every path, and nothing is written on error.
func EncodeItem(w *codec.Writer, item Item) error {
	payload := item.Payload()
	defer payload.Release()
	if payload.Released() {
		return fmt.Errorf("cpf item 0x%04X: %w", item.TypeID(), codec.ErrReleased)
	}
	if payload.Len() > 0xFFFF {
		return fmt.Errorf("cpf item 0x%04X: payload of %d bytes exceeds 16-bit length", item.TypeID(), payload.Len())
	}

	start := w.Len()
	w.WriteUint16(item.TypeID())
	mark := w.Reserve16()
	if err := w.WriteBuffer(payload); err != nil {
		w.Truncate(start)
		return fmt.Errorf("cpf item 0x%04X: %w", item.TypeID(), err)
	}
	if err := w.PatchLength16(mark); err != nil {
		w.Truncate(start)
		return fmt.Errorf("cpf item 0x%04X: %w", item.TypeID(), err)
	}
	return nil
}

func readItemHeader(r *codec.Reader) (uint16, uint16, error) {
	if r.Remaining() < ItemHeaderSize {
		return 0, 0, codec.Framingf(layerCPF, "item header needs %d bytes, have %d", ItemHeaderSize, r.Remaining())
	}
	typeID, _ := r.Uint16("type id")
	length, _ := r.Uint16("length")
	return typeID, length, nil
}

func readItemPayload(r *codec.Reader, typeID, length uint16) (*codec.Buffer, error) {
	if int(length) > r.Remaining() {
		return nil, codec.Framingf(layerCPF, "item 0x%04X declares %d bytes, %d remain", typeID, length, r.Remaining())
	}
	data, err := r.CopyN("item payload", int(length))
	if err != nil {
		return nil, err
	}
	return codec.NewBuffer(data), nil
}

func decodeExpected(r *codec.Reader, want uint16) (*codec.Buffer, error) {
	typeID, length, err := readItemHeader(r)
	if err != nil {
		return nil, err
	}
	if typeID != want {
		return nil, codec.Framingf(layerCPF, "item type 0x%04X, want 0x%04X", typeID, want)
	}
	return readItemPayload(r, typeID, length)
}

// DecodeUnconnectedDataItem reads one item that must be an unconnected data
// item. The returned payload is an independent copy of exactly length bytes.
func DecodeUnconnectedDataItem(r *codec.Reader) (*UnconnectedDataItem, error) {
	data, err := decodeExpected(r, ItemUnconnectedData)
	if err != nil {
		return nil, err
	}
	return &UnconnectedDataItem{data: data}, nil
}

// DecodeConnectedDataItem reads one item that must be a connected data item.
func DecodeConnectedDataItem(r *codec.Reader) (*ConnectedDataItem, error) {
	data, err := decodeExpected(r, ItemConnectedData)
	if err != nil {
		return nil, err
	}
	return &ConnectedDataItem{data: data}, nil
}

// DecodeItem reads one item of any type.
func DecodeItem(r *codec.Reader) (Item, error) {
	typeID, length, err := readItemHeader(r)
	if err != nil {
		return nil, err
	}
	data, err := readItemPayload(r, typeID, length)
	if err != nil {
		return nil, err
	}

	switch typeID {
	case ItemUnconnectedData:
		return &UnconnectedDataItem{data: data}, nil
	case ItemConnectedData:
		return &ConnectedDataItem{data: data}, nil
	case ItemNullAddress:
		if length != 0 {
			return nil, codec.Framingf(layerCPF, "null address item with length %d", length)
		}
		return NullAddressItem{}, nil
	case ItemConnectedAddress:
		raw, _ := data.Bytes()
		if len(raw) != 4 {
			return nil, codec.Framingf(layerCPF, "connected address item with length %d", length)
		}
		return ConnectedAddressItem{ConnectionID: codec.ByteOrder.Uint32(raw)}, nil
	default:
		return &RawItem{Type: typeID, Data: data}, nil
	}
}

// ItemsEqual reports whether two items have the same type id and
// byte-for-byte equal payloads.
func ItemsEqual(a, b Item) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.TypeID() != b.TypeID() {
		return false
	}
	return a.Payload().Equal(b.Payload())
}
