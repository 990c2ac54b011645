package enip

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
)

// HeaderSize is the fixed size of the encapsulation header.
const HeaderSize = 24

// ENIP command codes
const (
	ENIPCommandListServices      uint16 = 0x0004
	ENIPCommandListIdentity      uint16 = 0x0063
	ENIPCommandListInterfaces    uint16 = 0x0064
	ENIPCommandRegisterSession   uint16 = 0x0065
	ENIPCommandUnregisterSession uint16 = 0x0066
	ENIPCommandSendRRData        uint16 = 0x006F
	ENIPCommandSendUnitData      uint16 = 0x0070
)

// ENIPStatusSuccess is the encapsulation status for a successful command.
const ENIPStatusSuccess uint32 = 0x00000000

// ENIPEncapsulation is an encapsulation header plus its data.
type ENIPEncapsulation struct {
	Command       uint16
	Length        uint16
	SessionID     uint32
	Status        uint32
	SenderContext [8]byte
	Options       uint32
	Data          []byte
}

// IsKnownCommand reports whether cmd is an encapsulation command this
// package recognizes.
func IsKnownCommand(cmd uint16) bool {
	switch cmd {
	case ENIPCommandListServices, ENIPCommandListIdentity, ENIPCommandListInterfaces,
		ENIPCommandRegisterSession, ENIPCommandUnregisterSession,
		ENIPCommandSendRRData, ENIPCommandSendUnitData:
		return true
	}
	return false
}

// EncodeENIP encodes an encapsulation frame. Length is taken from Data.
func EncodeENIP(encap ENIPEncapsulation) []byte {
	w := codec.NewWriter(HeaderSize + len(encap.Data))
	w.WriteUint16(encap.Command)
	w.WriteUint16(uint16(len(encap.Data)))
	w.WriteUint32(encap.SessionID)
	w.WriteUint32(encap.Status)
	w.Write(encap.SenderContext[:])
	w.WriteUint32(encap.Options)
	w.Write(encap.Data)
	return w.Bytes()
}

// DecodeENIP decodes one encapsulation frame. Data aliases the input and is
// limited to the declared length.
func DecodeENIP(data []byte) (ENIPEncapsulation, error) {
	var encap ENIPEncapsulation
	if len(data) < HeaderSize {
		return encap, fmt.Errorf("packet too short: %d bytes (minimum %d)", len(data), HeaderSize)
	}
	r := codec.NewReader(data)
	encap.Command, _ = r.Uint16("command")
	encap.Length, _ = r.Uint16("length")
	encap.SessionID, _ = r.Uint32("session")
	encap.Status, _ = r.Uint32("status")
	ctx, _ := r.Next("sender context", 8)
	copy(encap.SenderContext[:], ctx)
	encap.Options, _ = r.Uint32("options")

	body, err := r.Next("encapsulated data", int(encap.Length))
	if err != nil {
		return encap, fmt.Errorf("decode encapsulation: %w", err)
	}
	encap.Data = body
	return encap, nil
}

// BuildSendRRData wraps an encoded CPF packet in a SendRRData frame.
func BuildSendRRData(sessionID uint32, senderContext [8]byte, cpf []byte) []byte {
	data := make([]byte, 0, 6+len(cpf))
	data = codec.AppendUint32(data, 0) // interface handle
	data = codec.AppendUint16(data, 0) // timeout
	data = append(data, cpf...)
	return EncodeENIP(ENIPEncapsulation{
		Command:       ENIPCommandSendRRData,
		SessionID:     sessionID,
		SenderContext: senderContext,
		Data:          data,
	})
}

// BuildRegisterSession builds a RegisterSession request (protocol version 1,
// no options).
func BuildRegisterSession(senderContext [8]byte) []byte {
	data := codec.AppendUint16(nil, 1)
	data = codec.AppendUint16(data, 0)
	return EncodeENIP(ENIPEncapsulation{
		Command:       ENIPCommandRegisterSession,
		SenderContext: senderContext,
		Data:          data,
	})
}

// BuildUnregisterSession builds an UnregisterSession request.
func BuildUnregisterSession(sessionID uint32, senderContext [8]byte) []byte {
	return EncodeENIP(ENIPEncapsulation{
		Command:       ENIPCommandUnregisterSession,
		SessionID:     sessionID,
		SenderContext: senderContext,
	})
}

// ParseSendRRData strips the interface handle and timeout from SendRRData
// command data, returning the CPF packet bytes.
func ParseSendRRData(data []byte) ([]byte, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("SendRRData too short: %d bytes (minimum 6)", len(data))
	}
	return data[6:], nil
}

// ParseSendUnitData strips the interface handle and timeout from
// SendUnitData command data.
func ParseSendUnitData(data []byte) ([]byte, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("SendUnitData too short: %d bytes (minimum 6)", len(data))
	}
	return data[6:], nil
}
