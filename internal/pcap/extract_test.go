package pcap

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/tturner/cipwire/internal/cip/catalog"
	"github.com/tturner/cipwire/internal/cip/client"
	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
	"github.com/tturner/cipwire/internal/enip"
)

var captureStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestExtractENIPMetadataTCP(t *testing.T) {
	payload := enip.BuildRegisterSession([8]byte{0x01})
	packet := buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12000, 44818, payload)
	pcapPath := writeENIPPCAP(t, packet)

	packets, err := ExtractENIP(pcapPath)
	if err != nil {
		t.Fatalf("ExtractENIP error: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	pkt := packets[0]
	if pkt.Transport != "tcp" || pkt.SrcIP != "10.0.0.1" || pkt.DstIP != "10.0.0.2" {
		t.Fatalf("unexpected metadata: %+v", pkt)
	}
	if pkt.SrcPort != 12000 || pkt.DstPort != 44818 {
		t.Fatalf("unexpected ports: src=%d dst=%d", pkt.SrcPort, pkt.DstPort)
	}
	if !pkt.Timestamp.Equal(captureStart) {
		t.Fatalf("timestamp = %v, want %v", pkt.Timestamp, captureStart)
	}
	if !pkt.IsRequest || pkt.Description != "RegisterSession Request" {
		t.Fatalf("unexpected classification: request=%v description=%q", pkt.IsRequest, pkt.Description)
	}
	if !bytes.Equal(pkt.FullPacket, payload) {
		t.Fatalf("full packet mismatch")
	}
}

func TestExtractENIPMetadataUDP(t *testing.T) {
	payload := enip.EncodeENIP(enip.ENIPEncapsulation{Command: enip.ENIPCommandListIdentity})
	packet := buildENIPUDPPacket(t, "10.0.0.3", "10.0.0.4", 12001, 44818, payload)
	pcapPath := writeENIPPCAP(t, packet)

	packets, err := ExtractENIP(pcapPath)
	if err != nil {
		t.Fatalf("ExtractENIP error: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	if packets[0].Transport != "udp" || !packets[0].IsRequest {
		t.Fatalf("unexpected packet: %+v", packets[0])
	}
}

func TestExtractENIPTCPReassembly(t *testing.T) {
	payload := enip.BuildRegisterSession([8]byte{0x03})
	packet1 := buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12002, 44818, payload[:10])
	packet2 := buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12002, 44818, payload[10:])
	pcapPath := writeENIPPCAP(t, packet1, packet2)

	packets, err := ExtractENIP(pcapPath)
	if err != nil {
		t.Fatalf("ExtractENIP error: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("expected 1 reassembled packet, got %d", len(packets))
	}
	if !bytes.Equal(packets[0].FullPacket, payload) {
		t.Fatalf("reassembled packet mismatch")
	}
}

func TestExtractENIPIgnoresOtherPorts(t *testing.T) {
	payload := enip.BuildRegisterSession([8]byte{0x04})
	packet := buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12003, 502, payload)
	packets, err := ExtractENIP(writeENIPPCAP(t, packet))
	if err != nil {
		t.Fatalf("ExtractENIP error: %v", err)
	}
	if len(packets) != 0 {
		t.Fatalf("expected no packets, got %d", len(packets))
	}
}

func TestExtractENIPPcapNG(t *testing.T) {
	payload := enip.BuildRegisterSession([8]byte{0x05})
	packet := buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12004, 44818, payload)

	path := filepath.Join(t.TempDir(), "capture.pcapng")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create pcapng: %v", err)
	}
	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	if err != nil {
		t.Fatalf("pcapng writer: %v", err)
	}
	ci := gopacket.CaptureInfo{Timestamp: captureStart, CaptureLength: len(packet), Length: len(packet)}
	if err := w.WritePacket(ci, packet); err != nil {
		t.Fatalf("write pcapng packet: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush pcapng: %v", err)
	}
	f.Close()

	packets, err := ExtractENIP(path)
	if err != nil {
		t.Fatalf("ExtractENIP error: %v", err)
	}
	if len(packets) != 1 || packets[0].Command != enip.ENIPCommandRegisterSession {
		t.Fatalf("unexpected packets: %+v", packets)
	}
}

func TestExtractENIPMissingFile(t *testing.T) {
	if _, err := ExtractENIP(filepath.Join(t.TempDir(), "missing.pcap")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPairAndDecodeAttributeLists(t *testing.T) {
	ctxA := [8]byte{0xA}
	ctxB := [8]byte{0xB}
	const session = 0x01020304

	identity := protocol.LogicalPath{Class: 0x01, Instance: 0x01}.Encode()
	okReq := getAttrListRequest(t, identity, []uint16{0x01, 0x06})
	okReply := mrReply(t, 0x03, 0, nil, []byte{
		0x02, 0x00,
		0x01, 0x00, 0x00, 0x00, 0x01, 0x00,
		0x06, 0x00, 0x00, 0x00, 0x78, 0x56, 0x34, 0x12,
	})
	unknown := protocol.LogicalPath{Class: 0x01, Instance: 0x09}.Encode()
	badReq := getAttrListRequest(t, unknown, []uint16{0x01})
	badReply := mrReply(t, 0x03, 0x05, []uint16{0x0107}, nil)

	frames := [][]byte{
		buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12000, 44818, enip.BuildSendRRData(session, ctxA, okReq)),
		buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12000, 44818, enip.BuildSendRRData(session, ctxB, badReq)),
		buildENIPTCPPacket(t, "10.0.0.2", "10.0.0.1", 44818, 12000, enip.BuildSendRRData(session, ctxB, badReply)),
		buildENIPTCPPacket(t, "10.0.0.2", "10.0.0.1", 44818, 12000, enip.BuildSendRRData(session, ctxA, okReply)),
	}
	packets, err := ExtractENIP(writeENIPPCAP(t, frames...))
	if err != nil {
		t.Fatalf("ExtractENIP error: %v", err)
	}
	if len(packets) != 4 {
		t.Fatalf("expected 4 packets, got %d", len(packets))
	}
	if packets[0].Description != "SendRRData Request (Get_Attribute_List)" {
		t.Errorf("request description = %q", packets[0].Description)
	}
	if packets[2].IsRequest || packets[2].Description != "SendRRData Response (Get_Attribute_List_Response)" {
		t.Errorf("reply classification: request=%v description=%q", packets[2].IsRequest, packets[2].Description)
	}

	exchanges := PairExchanges(packets)
	if len(exchanges) != 2 {
		t.Fatalf("expected 2 exchanges, got %d", len(exchanges))
	}

	results := DecodeAttributeLists(exchanges, catalog.Default())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	failed := results[0]
	if failed.Err != nil {
		t.Fatalf("unexpected error: %v", failed.Err)
	}
	if failed.Path.Instance != 0x09 || failed.Outcome.Verdict != service.Failed {
		t.Fatalf("expected failed outcome for instance 9, got %+v", failed)
	}
	if failed.Outcome.Status.General != 0x05 || failed.Outcome.Status.Additional[0] != 0x0107 {
		t.Fatalf("status not preserved: %+v", failed.Outcome.Status)
	}

	ok := results[1]
	if ok.Err != nil {
		t.Fatalf("unexpected error: %v", ok.Err)
	}
	if ok.Outcome.Verdict != service.Complete || len(ok.Outcome.Value) != 2 {
		t.Fatalf("unexpected outcome: %+v", ok.Outcome)
	}
	if !bytes.Equal(ok.Outcome.Value[1].Data, []byte{0x78, 0x56, 0x34, 0x12}) {
		t.Fatalf("serial number = % X", ok.Outcome.Value[1].Data)
	}
}

func TestDecodeAttributeListsUnknownSize(t *testing.T) {
	path := protocol.LogicalPath{Class: 0x01, Instance: 0x01}.Encode()
	req := getAttrListRequest(t, path, []uint16{0x07})
	reply := mrReply(t, 0x03, 0, nil, []byte{0x01, 0x00, 0x07, 0x00, 0x00, 0x00, 0x03, 'a', 'b', 'c'})
	ex := Exchange{
		Request: ENIPPacket{Command: enip.ENIPCommandSendRRData, Data: rrData(req), IsRequest: true},
		Reply:   ENIPPacket{Command: enip.ENIPCommandSendRRData, Data: rrData(reply)},
	}
	results := DecodeAttributeLists([]Exchange{ex}, catalog.Default())
	if len(results) != 1 || results[0].Err == nil {
		t.Fatalf("expected a size hint error, got %+v", results)
	}
}

func TestUnconnectedPayloadWrongCommand(t *testing.T) {
	if _, err := UnconnectedPayload(ENIPPacket{Command: enip.ENIPCommandRegisterSession}); err == nil {
		t.Fatal("expected error for non-SendRRData frame")
	}
}

func getAttrListRequest(t *testing.T, path []byte, ids []uint16) []byte {
	t.Helper()
	sizes := make([]int, len(ids))
	for i := range sizes {
		sizes[i] = 1
	}
	svc, err := service.NewGetAttributeList(path, ids, sizes)
	if err != nil {
		t.Fatalf("NewGetAttributeList: %v", err)
	}
	pkt, err := client.Frame[[]service.Attribute](svc)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	return pkt
}

func mrReply(t *testing.T, code protocol.ServiceCode, general protocol.GeneralStatus, additional []uint16, body []byte) []byte {
	t.Helper()
	pkt, err := client.FrameReply(&protocol.MessageRouterResponse{
		Service:          code.Reply(),
		GeneralStatus:    general,
		AdditionalStatus: additional,
		Body:             codec.CopyBuffer(body),
	})
	if err != nil {
		t.Fatalf("FrameReply: %v", err)
	}
	return pkt
}

// rrData is SendRRData command data: interface handle, timeout, CPF packet.
func rrData(cpf []byte) []byte {
	return append([]byte{0, 0, 0, 0, 0, 0}, cpf...)
}

func writeENIPPCAP(t *testing.T, packets ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create pcap: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("write pcap header: %v", err)
	}
	for i, data := range packets {
		ci := gopacket.CaptureInfo{
			Timestamp:     captureStart.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("write pcap packet: %v", err)
		}
	}
	return path
}

func buildENIPTCPPacket(t *testing.T, srcIP, dstIP string, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		SrcIP:    net.ParseIP(srcIP).To4(),
		DstIP:    net.ParseIP(dstIP).To4(),
		Protocol: layers.IPProtocolTCP,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     1,
		ACK:     true,
		Window:  14600,
	}
	tcp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(payload)); err != nil {
		t.Fatalf("serialize tcp packet: %v", err)
	}
	return buf.Bytes()
}

func buildENIPUDPPacket(t *testing.T, srcIP, dstIP string, srcPort, dstPort uint16, payload []byte) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
		DstMAC:       net.HardwareAddr{0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		SrcIP:    net.ParseIP(srcIP).To4(),
		DstIP:    net.ParseIP(dstIP).To4(),
		Protocol: layers.IPProtocolUDP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	udp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		t.Fatalf("serialize udp packet: %v", err)
	}
	return buf.Bytes()
}

func TestDescribeFlagsShortRequestBody(t *testing.T) {
	// Get_Attribute_List to Identity instance 1 with no attribute count.
	mr := []byte{0x03, 0x02, 0x20, 0x01, 0x24, 0x01}
	cpf := []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0xB2, 0x00, byte(len(mr)), 0x00}
	payload := enip.BuildSendRRData(0x01, [8]byte{0x09}, append(cpf, mr...))
	pcapPath := writeENIPPCAP(t, buildENIPTCPPacket(t, "10.0.0.1", "10.0.0.2", 12000, 44818, payload))

	packets, err := ExtractENIP(pcapPath)
	if err != nil {
		t.Fatalf("ExtractENIP error: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	want := "SendRRData Request (Get_Attribute_List: Get_Attribute_List request body too short: 0 bytes (minimum 2))"
	if packets[0].Description != want {
		t.Fatalf("description = %q, want %q", packets[0].Description, want)
	}
}
