package enip

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
)

// Packet is a CPF packet: an item count followed by the items.
type Packet struct {
	Items []Item
}

// NewUnconnectedPacket frames an unconnected Message Router packet as the
// usual [null address, unconnected data] pair.
func NewUnconnectedPacket(data *codec.Buffer) *Packet {
	return &Packet{Items: []Item{NullAddressItem{}, NewUnconnectedDataItem(data)}}
}

// EncodePacket writes the item count and every item. Item payloads are
// consumed whether or not encoding succeeds. On error the writer is left as
// it was on entry.
func EncodePacket(w *codec.Writer, p *Packet) error {
	if len(p.Items) > 0xFFFF {
		p.Release()
		return fmt.Errorf("cpf: %d items exceed 16-bit item count", len(p.Items))
	}
	start := w.Len()
	w.WriteUint16(uint16(len(p.Items)))
	for i, item := range p.Items {
		if err := EncodeItem(w, item); err != nil {
			p.Release()
			w.Truncate(start)
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// DecodePacket reads a CPF packet. Item payloads are copied out of data.
func DecodePacket(r *codec.Reader) (*Packet, error) {
	count, err := r.Uint16("cpf item count")
	if err != nil {
		return nil, codec.Framingf(layerCPF, "missing item count")
	}
	p := &Packet{Items: make([]Item, 0, count)}
	for i := 0; i < int(count); i++ {
		item, err := DecodeItem(r)
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		p.Items = append(p.Items, item)
	}
	return p, nil
}

// Find returns the first item with the given type id, or nil.
func (p *Packet) Find(typeID uint16) Item {
	for _, item := range p.Items {
		if item.TypeID() == typeID {
			return item
		}
	}
	return nil
}

// UnconnectedData returns the payload of the unconnected data item. Ownership
// stays with the packet until the caller takes it.
func (p *Packet) UnconnectedData() (*codec.Buffer, error) {
	item := p.Find(ItemUnconnectedData)
	if item == nil {
		return nil, codec.Framingf(layerCPF, "no unconnected data item in %d items", len(p.Items))
	}
	return item.Payload(), nil
}

// Release releases every item payload held by the packet.
func (p *Packet) Release() {
	for _, item := range p.Items {
		switch it := item.(type) {
		case *UnconnectedDataItem:
			it.data.Release()
		case *ConnectedDataItem:
			it.data.Release()
		case *RawItem:
			it.Data.Release()
		}
	}
}
