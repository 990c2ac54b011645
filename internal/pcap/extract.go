// Package pcap extracts EtherNet/IP traffic from packet captures and pairs
// unconnected requests with their replies.
package pcap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
	"github.com/tturner/cipwire/internal/cip/spec"
	"github.com/tturner/cipwire/internal/enip"
)

const (
	explicitPort = 44818
	implicitPort = 2222
)

// ENIPPacket represents an extracted ENIP frame.
type ENIPPacket struct {
	Command       uint16
	SessionID     uint32
	Status        uint32
	SenderContext [8]byte
	Data          []byte
	FullPacket    []byte // 24-byte header + data.
	IsRequest     bool
	Description   string
	Timestamp     time.Time
	Transport     string
	SrcIP         string
	DstIP         string
	SrcPort       uint16
	DstPort       uint16
}

// ENIPMetadata carries the capture-level details of the packet a frame
// came from.
type ENIPMetadata struct {
	Timestamp time.Time
	Transport string
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// openCapture returns a reader for a pcap or pcapng file.
func openCapture(f *os.File) (packetReader, layers.LinkType, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, 0, fmt.Errorf("read capture header: %w", err)
	}
	// pcapng section header block type.
	if magic[0] == 0x0A && magic[1] == 0x0D && magic[2] == 0x0D && magic[3] == 0x0A {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, 0, fmt.Errorf("open pcapng: %w", err)
		}
		return ng, ng.LinkType(), nil
	}
	r, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, 0, fmt.Errorf("open pcap: %w", err)
	}
	return r, r.LinkType(), nil
}

// ExtractENIP extracts ENIP frames from a capture file. TCP payloads are
// reassembled per stream so frames split across segments are recovered;
// UDP datagrams are taken as-is.
func ExtractENIP(path string) ([]ENIPPacket, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pcap file: %w", err)
	}
	defer f.Close()

	reader, linkType, err := openCapture(f)
	if err != nil {
		return nil, err
	}

	var packets []ENIPPacket
	streams := make(map[string][]byte)
	for {
		data, ci, err := reader.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return packets, fmt.Errorf("read packet: %w", err)
		}
		packet := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		meta := extractPacketMeta(packet)
		meta.Timestamp = ci.Timestamp

		if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
			tcp, _ := tcpLayer.(*layers.TCP)
			if !isENIPPort(uint16(tcp.SrcPort), uint16(tcp.DstPort)) || len(tcp.Payload) == 0 {
				continue
			}
			key := streamKey(packet.NetworkLayer(), tcp)
			streams[key] = append(streams[key], tcp.Payload...)
			meta.Transport = "tcp"
			meta.SrcPort = uint16(tcp.SrcPort)
			meta.DstPort = uint16(tcp.DstPort)
			parsed, remaining := extractENIPFrames(streams[key], isServerPort(meta.DstPort), meta)
			packets = append(packets, parsed...)
			streams[key] = remaining
			continue
		}

		if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
			udp, _ := udpLayer.(*layers.UDP)
			if !isENIPPort(uint16(udp.SrcPort), uint16(udp.DstPort)) || len(udp.Payload) == 0 {
				continue
			}
			meta.Transport = "udp"
			meta.SrcPort = uint16(udp.SrcPort)
			meta.DstPort = uint16(udp.DstPort)
			parsed, _ := extractENIPFrames(udp.Payload, isServerPort(meta.DstPort), meta)
			packets = append(packets, parsed...)
		}
	}

	labelReplies(packets)
	return packets, nil
}

// extractENIPFrames splits a stream buffer into whole frames and returns
// the unconsumed tail. Bytes that cannot start a frame are skipped.
func extractENIPFrames(payload []byte, isToServer bool, meta *ENIPMetadata) ([]ENIPPacket, []byte) {
	var packets []ENIPPacket
	offset := 0
	for offset+enip.HeaderSize <= len(payload) {
		command := codec.ByteOrder.Uint16(payload[offset:])
		if !enip.IsKnownCommand(command) {
			offset++
			continue
		}
		length := int(codec.ByteOrder.Uint16(payload[offset+2:]))
		total := enip.HeaderSize + length
		if offset+total > len(payload) {
			break
		}

		full := make([]byte, total)
		copy(full, payload[offset:offset+total])
		encap, err := enip.DecodeENIP(full)
		if err != nil {
			offset++
			continue
		}

		pkt := ENIPPacket{
			Command:       encap.Command,
			SessionID:     encap.SessionID,
			Status:        encap.Status,
			SenderContext: encap.SenderContext,
			Data:          encap.Data,
			FullPacket:    full,
			IsRequest:     isRequest(encap, isToServer),
		}
		if meta != nil {
			pkt.Timestamp = meta.Timestamp
			pkt.Transport = meta.Transport
			pkt.SrcIP = meta.SrcIP
			pkt.DstIP = meta.DstIP
			pkt.SrcPort = meta.SrcPort
			pkt.DstPort = meta.DstPort
		}
		pkt.Description = describe(pkt)
		packets = append(packets, pkt)
		offset += total
	}

	if offset >= len(payload) {
		return packets, nil
	}
	remaining := make([]byte, len(payload)-offset)
	copy(remaining, payload[offset:])
	return packets, remaining
}

// isRequest classifies a frame. For SendRRData the reply bit of the Message
// Router service decides; otherwise the direction does.
func isRequest(encap enip.ENIPEncapsulation, isToServer bool) bool {
	switch encap.Command {
	case enip.ENIPCommandRegisterSession:
		return encap.SessionID == 0 && encap.Status == 0
	case enip.ENIPCommandSendRRData:
		if mr, err := unconnectedData(encap.Data); err == nil && len(mr) > 0 {
			return !protocol.ServiceCode(mr[0]).IsReply()
		}
	case enip.ENIPCommandSendUnitData:
		if msg, err := connectedData(encap.Data); err == nil && len(msg.Data) > 0 {
			return !protocol.ServiceCode(msg.Data[0]).IsReply()
		}
	}
	return isToServer
}

func isENIPPort(src, dst uint16) bool {
	return isServerPort(src) || isServerPort(dst)
}

func isServerPort(port uint16) bool {
	return port == explicitPort || port == implicitPort
}

func streamKey(netLayer gopacket.NetworkLayer, tcp *layers.TCP) string {
	if netLayer != nil {
		src, dst := netLayer.NetworkFlow().Endpoints()
		return fmt.Sprintf("%s:%d->%s:%d", src, tcp.SrcPort, dst, tcp.DstPort)
	}
	return fmt.Sprintf("unknown:%d->unknown:%d", tcp.SrcPort, tcp.DstPort)
}

func extractPacketMeta(packet gopacket.Packet) *ENIPMetadata {
	meta := &ENIPMetadata{}
	netLayer := packet.NetworkLayer()
	if netLayer == nil {
		return meta
	}
	src, dst := netLayer.NetworkFlow().Endpoints()
	meta.SrcIP = src.String()
	meta.DstIP = dst.String()
	return meta
}

// describe generates a human-readable description of a frame. Replies are
// labelled without class context here; labelReplies refines SendRRData
// replies once their request is known.
func describe(pkt ENIPPacket) string {
	name := commandName(pkt.Command)
	dir := "Request"
	if !pkt.IsRequest {
		dir = "Response"
	}
	mr, suffix, ok := messageRouterData(pkt)
	if !ok {
		return fmt.Sprintf("%s %s", name, dir)
	}
	code := protocol.ServiceCode(mr[0])
	label := replyLabel(code)
	if pkt.IsRequest {
		label = requestLabel(mr)
	}
	return fmt.Sprintf("%s %s (%s%s)", name, dir, label, suffix)
}

// messageRouterData returns the Message Router bytes of a SendRRData or
// SendUnitData frame and a description suffix for connected frames.
func messageRouterData(pkt ENIPPacket) ([]byte, string, bool) {
	switch pkt.Command {
	case enip.ENIPCommandSendRRData:
		if mr, err := unconnectedData(pkt.Data); err == nil && len(mr) > 0 {
			return mr, "", true
		}
	case enip.ENIPCommandSendUnitData:
		if msg, err := connectedData(pkt.Data); err == nil && len(msg.Data) > 0 {
			return msg.Data, fmt.Sprintf(", conn 0x%08X seq %d", msg.ConnectionID, msg.Sequence), true
		}
	}
	return nil, "", false
}

func requestLabel(mr []byte) string {
	req, err := protocol.DecodeRequest(mr)
	if err != nil {
		return spec.ServiceName(protocol.ServiceCode(mr[0]))
	}
	label, _ := spec.LabelPath(req.Service, req.Path, false)
	if err := spec.DefaultRegistry().CheckShape(requestClass(req), req.Service, req.Body); err != nil {
		label += ": " + err.Error()
	}
	return label
}

// requestClass returns the class a request addresses. Symbolic (tag) paths
// address the Symbol object.
func requestClass(req protocol.DecodedRequest) uint16 {
	if lp, err := protocol.ParseLogicalPath(req.Path); err == nil {
		return lp.Class
	}
	return spec.CIPClassSymbolObject
}

// replyLabel names a reply whose request is unknown. Implemented services
// take their own name; other codes use the generic table.
func replyLabel(code protocol.ServiceCode) string {
	if info, ok := service.Lookup(code); ok {
		return info.Name + "_Response"
	}
	return spec.ServiceName(code.Base()) + "_Response"
}

// labelReplies names each SendRRData reply after the class its request
// addressed, using the same matching as PairExchanges.
func labelReplies(packets []ENIPPacket) {
	type pending struct {
		class uint16
		ok    bool
	}
	open := make(map[exchangeKey][]pending)
	for i := range packets {
		pkt := &packets[i]
		if pkt.Command != enip.ENIPCommandSendRRData {
			continue
		}
		if pkt.IsRequest {
			var p pending
			if mr, err := unconnectedData(pkt.Data); err == nil && len(mr) > 0 {
				if req, err := protocol.DecodeRequest(mr); err == nil {
					p = pending{class: requestClass(req), ok: true}
				}
			}
			k := requestKey(*pkt)
			open[k] = append(open[k], p)
			continue
		}
		k := replyKey(*pkt)
		queue := open[k]
		if len(queue) == 0 {
			continue
		}
		open[k] = queue[1:]
		mr, err := unconnectedData(pkt.Data)
		if !queue[0].ok || err != nil || len(mr) == 0 {
			continue
		}
		label, _ := spec.LabelService(protocol.ServiceCode(mr[0]), queue[0].class, true)
		pkt.Description = fmt.Sprintf("%s Response (%s)", commandName(pkt.Command), label)
	}
}

func commandName(command uint16) string {
	switch command {
	case enip.ENIPCommandRegisterSession:
		return "RegisterSession"
	case enip.ENIPCommandUnregisterSession:
		return "UnregisterSession"
	case enip.ENIPCommandSendRRData:
		return "SendRRData"
	case enip.ENIPCommandSendUnitData:
		return "SendUnitData"
	case enip.ENIPCommandListIdentity:
		return "ListIdentity"
	case enip.ENIPCommandListServices:
		return "ListServices"
	case enip.ENIPCommandListInterfaces:
		return "ListInterfaces"
	default:
		return fmt.Sprintf("Unknown(0x%04X)", command)
	}
}
