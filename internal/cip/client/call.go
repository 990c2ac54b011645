// Package client drives service calls over a transport: it frames requests
// as CPF packets, owns the continuation loop for fragmented services and
// turns each physical reply into a verdict.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/cip/protocol"
	"github.com/tturner/cipwire/internal/cip/service"
	"github.com/tturner/cipwire/internal/enip"
	"github.com/tturner/cipwire/internal/logging"
)

// DefaultMaxFragments bounds the replies accepted for one logical call.
const DefaultMaxFragments = 64

// ErrTooManyFragments is returned when a device keeps answering with partial
// transfer past the configured limit.
var ErrTooManyFragments = errors.New("too many fragments")

// RoundTripper sends one CPF packet and returns the CPF packet of the reply.
// Packet boundaries are resolved by the implementation.
type RoundTripper interface {
	RoundTrip(ctx context.Context, request []byte) ([]byte, error)
}

// Options control a call.
type Options struct {
	// MaxFragments is the maximum number of replies for one call; 0 means
	// DefaultMaxFragments.
	MaxFragments int
	// Logger receives one outcome line per reply. Nil disables logging.
	Logger *logging.Logger
}

// Frame encodes svc as an unconnected Message Router request inside a
// [null address, unconnected data] CPF packet.
func Frame[T any](svc service.Service[T]) ([]byte, error) {
	mr := codec.NewWriter(32)
	if err := service.Encode(mr, svc); err != nil {
		return nil, err
	}
	w := codec.NewWriter(mr.Len() + 16)
	if err := enip.EncodePacket(w, enip.NewUnconnectedPacket(mr.Buffer())); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// FrameReply encodes a Message Router reply inside a CPF packet. The reply
// body is consumed.
func FrameReply(resp *protocol.MessageRouterResponse) ([]byte, error) {
	mr := codec.NewWriter(16)
	if err := protocol.EncodeResponse(mr, resp); err != nil {
		return nil, err
	}
	w := codec.NewWriter(mr.Len() + 16)
	if err := enip.EncodePacket(w, enip.NewUnconnectedPacket(mr.Buffer())); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unframe returns an owned copy of the unconnected data item of a CPF packet.
func Unframe(packet []byte) (*codec.Buffer, error) {
	r := codec.NewReader(packet)
	pkt, err := enip.DecodePacket(r)
	if err != nil {
		return nil, err
	}
	defer pkt.Release()
	if r.Remaining() != 0 {
		return nil, codec.Framingf("cpf", "%d bytes after last item", r.Remaining())
	}
	data, err := pkt.UnconnectedData()
	if err != nil {
		return nil, err
	}
	return data.Clone()
}

// Call performs one logical service call. A Fragmented service is re-sent
// with its continuation request while the device reports partial transfer,
// and the fragments are merged in order. Nothing is retried: transport,
// framing and status errors end the call. A protocol status failure is
// returned as *protocol.StatusError.
func Call[T any](ctx context.Context, rt RoundTripper, svc service.Service[T], opts Options) (T, error) {
	var zero, acc T
	limit := opts.MaxFragments
	if limit <= 0 {
		limit = DefaultMaxFragments
	}
	name := serviceName(svc.Code())

	current := svc
	for fragment := 0; ; fragment++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		req, err := Frame(current)
		if err != nil {
			return zero, fmt.Errorf("frame %s request: %w", name, err)
		}
		opts.Logger.LogHex(name+" request", req)

		raw, err := rt.RoundTrip(ctx, req)
		if err != nil {
			return zero, fmt.Errorf("%s round trip: %w", name, err)
		}
		opts.Logger.LogHex(name+" reply", raw)

		body, err := Unframe(raw)
		if err != nil {
			opts.Logger.LogOutcome(name, fragment, service.Failed.String(), 0, err)
			return zero, fmt.Errorf("%s reply: %w", name, err)
		}
		out, err := service.DecodeReply(current, body)
		if err != nil {
			opts.Logger.LogOutcome(name, fragment, service.Failed.String(), 0, err)
			return zero, err
		}

		switch out.Verdict {
		case service.Complete:
			opts.Logger.LogOutcome(name, fragment, out.Verdict.String(), uint8(protocol.StatusSuccess), nil)
			if fragment == 0 {
				return out.Value, nil
			}
			return current.(service.Fragmented[T]).Merge(acc, out.Value), nil
		case service.NeedsMore:
			opts.Logger.LogOutcome(name, fragment, out.Verdict.String(), uint8(protocol.StatusPartialTransfer), nil)
			if fragment+1 >= limit {
				return zero, fmt.Errorf("%s: %w: device still partial after %d replies", name, ErrTooManyFragments, fragment+1)
			}
			frag := current.(service.Fragmented[T])
			acc = frag.Merge(acc, out.Value)
			current = frag.Next(acc)
		default:
			opts.Logger.LogOutcome(name, fragment, out.Verdict.String(), uint8(out.Status.General), out.Status)
			return zero, out.Status
		}
	}
}

func serviceName(code protocol.ServiceCode) string {
	if info, ok := service.Lookup(code); ok {
		return info.Name
	}
	return fmt.Sprintf("service 0x%02X", uint8(code))
}
