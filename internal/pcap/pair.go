package pcap

import (
	"net"
	"strconv"

	"github.com/tturner/cipwire/internal/enip"
)

// Exchange is an unconnected request and the reply that answered it.
type Exchange struct {
	Request ENIPPacket
	Reply   ENIPPacket
}

// PairExchanges matches SendRRData requests to replies. A reply answers the
// oldest open request on the reverse path with the same session handle and
// sender context. Requests without a reply are dropped.
func PairExchanges(packets []ENIPPacket) []Exchange {
	open := make(map[exchangeKey][]ENIPPacket)
	var exchanges []Exchange

	for _, pkt := range packets {
		if pkt.Command != enip.ENIPCommandSendRRData {
			continue
		}
		if pkt.IsRequest {
			k := requestKey(pkt)
			open[k] = append(open[k], pkt)
			continue
		}
		k := replyKey(pkt)
		queue := open[k]
		if len(queue) == 0 {
			continue
		}
		exchanges = append(exchanges, Exchange{Request: queue[0], Reply: pkt})
		open[k] = queue[1:]
	}
	return exchanges
}

// exchangeKey identifies an unconnected conversation from the client side.
type exchangeKey struct {
	client, server string
	session        uint32
	context        [8]byte
}

func requestKey(pkt ENIPPacket) exchangeKey {
	return exchangeKey{endpoint(pkt.SrcIP, pkt.SrcPort), endpoint(pkt.DstIP, pkt.DstPort), pkt.SessionID, pkt.SenderContext}
}

func replyKey(pkt ENIPPacket) exchangeKey {
	return exchangeKey{endpoint(pkt.DstIP, pkt.DstPort), endpoint(pkt.SrcIP, pkt.SrcPort), pkt.SessionID, pkt.SenderContext}
}

func endpoint(ip string, port uint16) string {
	return net.JoinHostPort(ip, strconv.Itoa(int(port)))
}
