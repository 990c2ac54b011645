package pcap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tturner/cipwire/internal/cip/client"
	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
	"github.com/tturner/cipwire/internal/enip"
)

func TestConnectedFrames(t *testing.T) {
	tagPath, err := protocol.SymbolicPath("Motor")
	if err != nil {
		t.Fatalf("SymbolicPath: %v", err)
	}
	req := append([]byte{0x52}, tagPath...)
	req = append(req, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00)
	reply := encodeReply(t, 0x52, []byte{0xC4, 0x00, 0x2A, 0x00, 0x00, 0x00})

	frames := [][]byte{
		buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12000, 44818, unitData(t, 0x11223344, 1, req)),
		buildENIPTCPPacket(t, "10.0.0.2", "10.0.0.1", 44818, 12000, unitData(t, 0x55667788, 1, reply)),
	}
	packets, err := ExtractENIP(writeENIPPCAP(t, frames...))
	if err != nil {
		t.Fatalf("ExtractENIP error: %v", err)
	}
	if len(packets) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(packets))
	}

	tests := []struct {
		pkt     ENIPPacket
		request bool
		want    string
	}{
		{packets[0], true, "SendUnitData Request (Read_Tag_Fragmented, conn 0x11223344 seq 1)"},
		{packets[1], false, "SendUnitData Response (Read_Tag_Fragmented_Response, conn 0x55667788 seq 1)"},
	}
	for _, tt := range tests {
		if tt.pkt.IsRequest != tt.request || tt.pkt.Description != tt.want {
			t.Errorf("request=%v description=%q, want request=%v %q", tt.pkt.IsRequest, tt.pkt.Description, tt.request, tt.want)
		}
	}

	msg, err := ConnectedPayload(packets[0])
	if err != nil {
		t.Fatalf("ConnectedPayload: %v", err)
	}
	if msg.ConnectionID != 0x11223344 || msg.Sequence != 1 || !bytes.Equal(msg.Data, req) {
		t.Errorf("connected message = %+v", msg)
	}
}

func TestConnectedPayloadErrors(t *testing.T) {
	unconnected := rrData(mustPacket(t, enip.NewUnconnectedPacket(codec.CopyBuffer([]byte{0x0E}))))
	noSequence := rrData(mustPacket(t, &enip.Packet{Items: []enip.Item{
		enip.ConnectedAddressItem{ConnectionID: 1},
		enip.NewConnectedDataItem(codec.CopyBuffer([]byte{0x01})),
	}}))

	tests := []struct {
		name string
		pkt  ENIPPacket
	}{
		{"wrong command", ENIPPacket{Command: enip.ENIPCommandSendRRData, Data: unconnected}},
		{"short command data", ENIPPacket{Command: enip.ENIPCommandSendUnitData, Data: []byte{0, 0}}},
		{"unconnected items", ENIPPacket{Command: enip.ENIPCommandSendUnitData, Data: unconnected}},
		{"missing sequence count", ENIPPacket{Command: enip.ENIPCommandSendUnitData, Data: noSequence}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ConnectedPayload(tt.pkt); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	_, err := ConnectedPayload(ENIPPacket{Command: enip.ENIPCommandSendUnitData, Data: unconnected})
	var framing *codec.FramingError
	if !errors.As(err, &framing) {
		t.Errorf("unconnected items error = %v, want *codec.FramingError", err)
	}
}

func TestReplyLabelsFollowRequestClass(t *testing.T) {
	const session = 0x0A0B0C0D
	ctxTag := [8]byte{0x01}
	ctxRoute := [8]byte{0x02}
	ctxOrphan := [8]byte{0x03}

	tagPath, err := protocol.SymbolicPath("Motor")
	if err != nil {
		t.Fatalf("SymbolicPath: %v", err)
	}
	tagSvc, err := service.NewReadTagFragmented(tagPath, 1, 0)
	if err != nil {
		t.Fatalf("NewReadTagFragmented: %v", err)
	}
	tagReq, err := client.Frame[service.TagData](tagSvc)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	// Unconnected_Send to the Connection Manager shares code 0x52.
	routeMR := []byte{0x52, 0x02, 0x20, 0x06, 0x24, 0x01, 0x07, 0xE9, 0x00, 0x00}
	routeReq := mustPacket(t, enip.NewUnconnectedPacket(codec.CopyBuffer(routeMR)))
	tagReply := mrReply(t, 0x52, 0, nil, []byte{0xC4, 0x00, 0x2A, 0x00, 0x00, 0x00})
	routeReply := mrReply(t, 0x52, 0, nil, []byte{0x00, 0x00})
	orphanReply := mrReply(t, 0x52, 0, nil, []byte{0x00, 0x00})

	frames := [][]byte{
		buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12000, 44818, enip.BuildSendRRData(session, ctxTag, tagReq)),
		buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12000, 44818, enip.BuildSendRRData(session, ctxRoute, routeReq)),
		buildENIPTCPPacket(t, "10.0.0.2", "10.0.0.1", 44818, 12000, enip.BuildSendRRData(session, ctxRoute, routeReply)),
		buildENIPTCPPacket(t, "10.0.0.2", "10.0.0.1", 44818, 12000, enip.BuildSendRRData(session, ctxTag, tagReply)),
		buildENIPTCPPacket(t, "10.0.0.2", "10.0.0.1", 44818, 12000, enip.BuildSendRRData(session, ctxOrphan, orphanReply)),
	}
	packets, err := ExtractENIP(writeENIPPCAP(t, frames...))
	if err != nil {
		t.Fatalf("ExtractENIP error: %v", err)
	}
	if len(packets) != 5 {
		t.Fatalf("expected 5 packets, got %d", len(packets))
	}

	want := map[int]string{
		0: "SendRRData Request (Read_Tag_Fragmented)",
		2: "SendRRData Response (Unconnected_Send_Response)",
		3: "SendRRData Response (Read_Tag_Fragmented_Response)",
		4: "SendRRData Response (Read_Tag_Fragmented_Response)",
	}
	for i, w := range want {
		if packets[i].Description != w {
			t.Errorf("packet %d description = %q, want %q", i, packets[i].Description, w)
		}
	}
}

// unitData is a SendUnitData frame carrying mr on connection connID.
func unitData(t *testing.T, connID uint32, seq uint16, mr []byte) []byte {
	t.Helper()
	cpf := mustPacket(t, &enip.Packet{Items: []enip.Item{
		enip.ConnectedAddressItem{ConnectionID: connID},
		enip.NewConnectedDataItem(codec.CopyBuffer(append(codec.AppendUint16(nil, seq), mr...))),
	}})
	return enip.EncodeENIP(enip.ENIPEncapsulation{
		Command:   enip.ENIPCommandSendUnitData,
		SessionID: 0x01,
		Data:      rrData(cpf),
	})
}

func mustPacket(t *testing.T, p *enip.Packet) []byte {
	t.Helper()
	w := codec.NewWriter(0)
	if err := enip.EncodePacket(w, p); err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	return w.Bytes()
}

// encodeReply is a bare Message Router reply with success status.
func encodeReply(t *testing.T, code protocol.ServiceCode, body []byte) []byte {
	t.Helper()
	w := codec.NewWriter(0)
	err := protocol.EncodeResponse(w, &protocol.MessageRouterResponse{
		Service: code.Reply(),
		Body:    codec.CopyBuffer(body),
	})
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	return w.Bytes()
}
