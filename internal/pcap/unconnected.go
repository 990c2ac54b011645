package pcap

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/enip"
)

// UnconnectedPayload returns the Message Router bytes carried by a
// SendRRData frame: the interface handle and timeout are stripped and the
// unconnected data item is pulled from the CPF packet.
func UnconnectedPayload(pkt ENIPPacket) ([]byte, error) {
	if pkt.Command != enip.ENIPCommandSendRRData {
		return nil, fmt.Errorf("command 0x%04X is not SendRRData", pkt.Command)
	}
	return unconnectedData(pkt.Data)
}

func unconnectedData(data []byte) ([]byte, error) {
	cpf, err := enip.ParseSendRRData(data)
	if err != nil {
		return nil, err
	}
	packet, err := enip.DecodePacket(codec.NewReader(cpf))
	if err != nil {
		return nil, err
	}
	defer packet.Release()
	payload, err := packet.UnconnectedData()
	if err != nil {
		return nil, err
	}
	raw, err := payload.Bytes()
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), raw...), nil
}
