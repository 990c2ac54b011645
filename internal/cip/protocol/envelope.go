package protocol

// CIP Message Router request/response envelope.

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
)

const layerMR = "message router"

// ServiceCode is a CIP service code. Replies carry the request code with
// the reply bit set.
type ServiceCode uint8

// ReplyBit marks a service code as a reply.
const ReplyBit ServiceCode = 0x80

// Reply returns the reply form of c.
func (c ServiceCode) Reply() ServiceCode { return c | ReplyBit }

// Base returns c without the reply bit.
func (c ServiceCode) Base() ServiceCode { return c &^ ReplyBit }

// IsReply reports whether the reply bit is set.
func (c ServiceCode) IsReply() bool { return c&ReplyBit != 0 }

// BodyEncoder writes a service-specific request body.
type BodyEncoder func(w *codec.Writer) error

// MessageRouterRequest is one outbound service invocation.
type MessageRouterRequest struct {
	Service ServiceCode
	// Path is the pre-encoded routing path, written verbatim.
	Path []byte
	Body BodyEncoder
}

// EncodeRequest writes the service code, the routing path and then lets the
// request body encode itself into the same writer.
func EncodeRequest(w *codec.Writer, req MessageRouterRequest) error {
	w.WriteUint8(uint8(req.Service))
	w.Write(req.Path)
	if req.Body == nil {
		return nil
	}
	if err := req.Body(w); err != nil {
		return fmt.Errorf("encode service 0x%02X request body: %w", uint8(req.Service), err)
	}
	return nil
}

// DecodedRequest is a request read back from the wire. Path and Body are
// owned copies.
type DecodedRequest struct {
	Service ServiceCode
	Path    []byte
	Body    []byte
}

// DecodeRequest reads a request whose routing path is a padded EPATH (word
// count byte followed by the segments).
func DecodeRequest(data []byte) (DecodedRequest, error) {
	var req DecodedRequest
	r := codec.NewReader(data)
	service, err := r.Uint8("service")
	if err != nil {
		return req, codec.Framingf(layerMR, "empty request")
	}
	req.Service = ServiceCode(service)
	if req.Service.IsReply() {
		return req, codec.Framingf(layerMR, "service 0x%02X is a reply", service)
	}
	words, err := r.Uint8("path size")
	if err != nil {
		return req, codec.Framingf(layerMR, "missing path size")
	}
	segments, err := r.CopyN("request path", int(words)*2)
	if err != nil {
		return req, fmt.Errorf("decode request path: %w", err)
	}
	req.Path = append([]byte{words}, segments...)
	rest := r.Rest()
	req.Body = make([]byte, len(rest))
	copy(req.Body, rest)
	return req, nil
}

// MessageRouterResponse is one inbound service result.
type MessageRouterResponse struct {
	Service          ServiceCode
	GeneralStatus    GeneralStatus
	AdditionalStatus []uint16
	// Body is owned by the response until a service decoder consumes it.
	Body *codec.Buffer
}

// ResponseHeaderSize is the fixed part of a reply: service, reserved,
// general status and additional status size.
const ResponseHeaderSize = 4

// DecodeResponse splits a Message Router reply into status and body. It takes
// ownership of data and releases it; the body is copied into a new buffer.
func DecodeResponse(data *codec.Buffer) (*MessageRouterResponse, error) {
	defer data.Release()

	raw, err := data.Bytes()
	if err != nil {
		return nil, err
	}
	if len(raw) < ResponseHeaderSize {
		return nil, codec.Framingf(layerMR, "reply too short: %d bytes (minimum %d: service + reserved + status + ext size)", len(raw), ResponseHeaderSize)
	}

	r := codec.NewReader(raw)
	service, _ := r.Uint8("reply service")
	_, _ = r.Uint8("reserved")
	general, _ := r.Uint8("general status")
	count, _ := r.Uint8("additional status size")

	resp := &MessageRouterResponse{
		Service:       ServiceCode(service),
		GeneralStatus: GeneralStatus(general),
	}
	if !resp.Service.IsReply() {
		return nil, codec.Framingf(layerMR, "service 0x%02X is not a reply", service)
	}

	if count > 0 {
		if r.Remaining() < int(count)*2 {
			return nil, &codec.ShortError{Field: "additional status", Offset: r.Offset(), Need: int(count) * 2, Have: r.Remaining()}
		}
		resp.AdditionalStatus = make([]uint16, count)
		for i := range resp.AdditionalStatus {
			resp.AdditionalStatus[i], _ = r.Uint16("additional status word")
		}
	}

	body := r.Rest()
	resp.Body = codec.CopyBuffer(body)
	return resp, nil
}

// EncodeResponse writes a reply. Service must carry the reply bit. The body
// buffer is consumed.
func EncodeResponse(w *codec.Writer, resp *MessageRouterResponse) error {
	if !resp.Service.IsReply() {
		return fmt.Errorf("service 0x%02X is not a reply", uint8(resp.Service))
	}
	if len(resp.AdditionalStatus) > 0xFF {
		return fmt.Errorf("%d additional status words exceed 8-bit count", len(resp.AdditionalStatus))
	}
	w.WriteUint8(uint8(resp.Service))
	w.WriteUint8(0x00)
	w.WriteUint8(uint8(resp.GeneralStatus))
	w.WriteUint8(uint8(len(resp.AdditionalStatus)))
	for _, word := range resp.AdditionalStatus {
		w.WriteUint16(word)
	}
	if resp.Body == nil {
		return nil
	}
	return w.WriteBuffer(resp.Body)
}

// Err returns a *StatusError when the reply carries a nonzero general status.
func (r *MessageRouterResponse) Err() error {
	if r.GeneralStatus == StatusSuccess {
		return nil
	}
	return &StatusError{Service: r.Service.Base(), General: r.GeneralStatus, Additional: r.AdditionalStatus}
}
