// Package service defines the CIP service contract and the status policy that
// turns a Message Router reply into a Complete, NeedsMore or Failed verdict.
//
// Services are pure: encoding and decoding never block, never log and carry
// no state beyond their constructor parameters, so independent calls may run
// concurrently.
package service

import (
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
)

// Service is one typed request/response pair.
type Service[T any] interface {
	// Code is the request service code.
	Code() protocol.ServiceCode
	// Path is the pre-encoded routing path.
	Path() []byte
	// EncodeRequest writes the service body only. It must not change the
	// service and may be called any number of times.
	EncodeRequest(w *codec.Writer) error
	// DecodeResponse consumes a success body and releases it.
	DecodeResponse(body *codec.Buffer) (T, error)
}

// Fragmented is implemented by services whose replies may be split across
// several round trips with general status 0x06.
type Fragmented[T any] interface {
	Service[T]
	// DecodePartial consumes the available prefix of a partial body.
	DecodePartial(body *codec.Buffer) (T, error)
	// Next returns the continuation request given everything received so far.
	Next(received T) Fragmented[T]
	// Merge appends part to acc. Merge of the zero value and part is part.
	Merge(acc, part T) T
}

// Verdict classifies one physical response.
type Verdict int

const (
	Complete Verdict = iota
	NeedsMore
	Failed
)

func (v Verdict) String() string {
	switch v {
	case Complete:
		return "complete"
	case NeedsMore:
		return "needs-more"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Outcome is the per-response result. Value holds the result for Complete
// and the partial data for NeedsMore; Status is set only for Failed.
type Outcome[T any] struct {
	Verdict Verdict
	Value   T
	Status  *protocol.StatusError
}

// Err returns the status error of a Failed outcome.
func (o Outcome[T]) Err() error {
	if o.Verdict != Failed || o.Status == nil {
		return nil
	}
	return o.Status
}

// ContractError is a caller programming error detected before any byte is
// written.
type ContractError struct {
	Service protocol.ServiceCode
	Msg     string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("service 0x%02X: invalid call: %s", uint8(e.Service), e.Msg)
}

func contractf(code protocol.ServiceCode, format string, args ...any) *ContractError {
	return &ContractError{Service: code, Msg: fmt.Sprintf(format, args...)}
}

// Request builds the Message Router request for svc.
func Request[T any](svc Service[T]) protocol.MessageRouterRequest {
	return protocol.MessageRouterRequest{
		Service: svc.Code(),
		Path:    svc.Path(),
		Body:    svc.EncodeRequest,
	}
}

// Encode writes the full Message Router request for svc.
func Encode[T any](w *codec.Writer, svc Service[T]) error {
	return protocol.EncodeRequest(w, Request(svc))
}

// Decide applies the status policy: success completes, partial transfer asks
// for more only when the service can continue, anything else fails.
func Decide(general protocol.GeneralStatus, fragmented bool) Verdict {
	switch {
	case general == protocol.StatusSuccess:
		return Complete
	case general == protocol.StatusPartialTransfer && fragmented:
		return NeedsMore
	default:
		return Failed
	}
}

// IsFragmented reports whether svc supports continuation.
func IsFragmented[T any](svc Service[T]) bool {
	_, ok := svc.(Fragmented[T])
	return ok
}

// Decode turns a decoded reply into an outcome for svc. The reply body is
// always released. Framing and schema errors are returned as errors; a
// protocol status failure is a Failed outcome, not an error.
func Decode[T any](svc Service[T], resp *protocol.MessageRouterResponse) (Outcome[T], error) {
	var out Outcome[T]
	if resp.Service.Base() != svc.Code() {
		resp.Body.Release()
		return out, codec.Framingf("message router", "reply service 0x%02X does not answer request 0x%02X", uint8(resp.Service), uint8(svc.Code()))
	}

	frag, fragmented := svc.(Fragmented[T])
	out.Verdict = Decide(resp.GeneralStatus, fragmented)
	switch out.Verdict {
	case Complete:
		v, err := svc.DecodeResponse(resp.Body)
		if err != nil {
			return out, fmt.Errorf("decode service 0x%02X response: %w", uint8(svc.Code()), err)
		}
		out.Value = v
	case NeedsMore:
		v, err := frag.DecodePartial(resp.Body)
		if err != nil {
			return out, fmt.Errorf("decode service 0x%02X partial response: %w", uint8(svc.Code()), err)
		}
		out.Value = v
	default:
		resp.Body.Release()
		out.Status = &protocol.StatusError{
			Service:    svc.Code(),
			General:    resp.GeneralStatus,
			Additional: resp.AdditionalStatus,
		}
	}
	return out, nil
}

// DecodeReply splits a raw Message Router reply and decodes it for svc.
// It takes ownership of raw.
func DecodeReply[T any](svc Service[T], raw *codec.Buffer) (Outcome[T], error) {
	resp, err := protocol.DecodeResponse(raw)
	if err != nil {
		return Outcome[T]{}, err
	}
	return Decode(svc, resp)
}

// expectEnd rejects bytes the service schema did not consume.
func expectEnd(r *codec.Reader, layer string) error {
	if n := r.Remaining(); n != 0 {
		return codec.Framingf(layer, "%d unexpected trailing bytes at offset %d", n, r.Offset())
	}
	return nil
}
