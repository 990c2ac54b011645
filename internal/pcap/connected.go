package pcap

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/enip"
)

// ConnectedMessage is a Message Router packet carried by a SendUnitData
// frame over a class 3 connection.
type ConnectedMessage struct {
	ConnectionID uint32
	Sequence     uint16
	Data         []byte
}

// ConnectedPayload returns the Message Router bytes of a SendUnitData frame
// together with the connection id and sequence count that address them.
func ConnectedPayload(pkt ENIPPacket) (ConnectedMessage, error) {
	if pkt.Command != enip.ENIPCommandSendUnitData {
		return ConnectedMessage{}, fmt.Errorf("command 0x%04X is not SendUnitData", pkt.Command)
	}
	return connectedData(pkt.Data)
}

// connectedData expects the [connected address, connected data] item pair.
func connectedData(data []byte) (ConnectedMessage, error) {
	var msg ConnectedMessage
	cpf, err := enip.ParseSendUnitData(data)
	if err != nil {
		return msg, err
	}
	r := codec.NewReader(cpf)
	count, err := r.Uint16("cpf item count")
	if err != nil {
		return msg, err
	}
	if count != 2 {
		return msg, codec.Framingf("cpf", "connected packet has %d items, want 2", count)
	}

	addr, err := enip.DecodeItem(r)
	if err != nil {
		return msg, fmt.Errorf("item 0: %w", err)
	}
	connAddr, ok := addr.(enip.ConnectedAddressItem)
	if !ok {
		return msg, codec.Framingf("cpf", "item type 0x%04X, want 0x%04X", addr.TypeID(), enip.ItemConnectedAddress)
	}
	msg.ConnectionID = connAddr.ConnectionID

	item, err := enip.DecodeConnectedDataItem(r)
	if err != nil {
		return msg, fmt.Errorf("item 1: %w", err)
	}
	payload := item.Payload()
	defer payload.Release()
	raw, err := payload.Bytes()
	if err != nil {
		return msg, err
	}
	pr := codec.NewReader(raw)
	if msg.Sequence, err = pr.Uint16("sequence count"); err != nil {
		return msg, err
	}
	msg.Data = append([]byte(nil), pr.Rest()...)
	return msg, nil
}
