package pcap

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/catalog"
	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
	"github.com/tturner/cipwire/internal/cip/spec"
)

// AttributeListResult is one decoded Get Attribute List exchange.
type AttributeListResult struct {
	Exchange Exchange
	Path     protocol.LogicalPath
	IDs      []uint16
	Outcome  service.Outcome[[]service.Attribute]
	// Err is set when the exchange could not be decoded: unknown sizes,
	// framing or schema errors.
	Err error
}

// DecodeAttributeLists decodes every Get Attribute List exchange, taking
// size hints from cat. Other services are skipped.
func DecodeAttributeLists(exchanges []Exchange, cat *catalog.Catalog) []AttributeListResult {
	var results []AttributeListResult
	for _, ex := range exchanges {
		reqBytes, err := UnconnectedPayload(ex.Request)
		if err != nil || len(reqBytes) == 0 {
			continue
		}
		if protocol.ServiceCode(reqBytes[0]) != spec.CIPServiceGetAttributeList {
			continue
		}
		results = append(results, decodeAttributeList(ex, reqBytes, cat))
	}
	return results
}

func decodeAttributeList(ex Exchange, reqBytes []byte, cat *catalog.Catalog) AttributeListResult {
	result := AttributeListResult{Exchange: ex}

	req, err := protocol.DecodeRequest(reqBytes)
	if err != nil {
		result.Err = fmt.Errorf("decode request: %w", err)
		return result
	}
	if result.Path, err = protocol.ParseLogicalPath(req.Path); err != nil {
		result.Err = fmt.Errorf("request path: %w", err)
		return result
	}
	if result.IDs, err = parseAttributeIDs(req.Body); err != nil {
		result.Err = err
		return result
	}

	sizes, err := cat.SizeHints(result.Path.Class, result.IDs)
	if err != nil {
		result.Err = fmt.Errorf("size hints: %w", err)
		return result
	}
	svc, err := service.NewGetAttributeList(req.Path, result.IDs, sizes)
	if err != nil {
		result.Err = err
		return result
	}

	replyBytes, err := UnconnectedPayload(ex.Reply)
	if err != nil {
		result.Err = fmt.Errorf("reply: %w", err)
		return result
	}
	result.Outcome, result.Err = service.DecodeReply[[]service.Attribute](svc, codec.CopyBuffer(replyBytes))
	return result
}

// parseAttributeIDs reads a Get Attribute List request body.
func parseAttributeIDs(body []byte) ([]uint16, error) {
	r := codec.NewReader(body)
	count, err := r.Uint16("attribute count")
	if err != nil {
		return nil, err
	}
	ids := make([]uint16, count)
	for i := range ids {
		if ids[i], err = r.Uint16("attribute id"); err != nil {
			return nil, err
		}
	}
	if r.Remaining() != 0 {
		return nil, codec.Framingf("get_attribute_list", "%d bytes after attribute ids", r.Remaining())
	}
	return ids, nil
}
