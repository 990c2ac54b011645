package client

import (
	"context"
	"errors"
	"sync"
)

// ErrReplayExhausted is returned when a ReplayTransport has no reply left.
var ErrReplayExhausted = errors.New("replay: no recorded reply left")

// ReplayTransport serves recorded CPF replies in order and records every
// request it receives. It is safe for concurrent use, though replies are
// handed out strictly in order.
type ReplayTransport struct {
	mu       sync.Mutex
	replies  [][]byte
	next     int
	requests [][]byte
}

var _ RoundTripper = (*ReplayTransport)(nil)

// NewReplayTransport returns a transport that answers with replies in order.
func NewReplayTransport(replies ...[]byte) *ReplayTransport {
	t := &ReplayTransport{}
	for _, r := range replies {
		t.replies = append(t.replies, append([]byte(nil), r...))
	}
	return t
}

func (t *ReplayTransport) RoundTrip(ctx context.Context, request []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, append([]byte(nil), request...))
	if t.next >= len(t.replies) {
		return nil, ErrReplayExhausted
	}
	reply := t.replies[t.next]
	t.next++
	return append([]byte(nil), reply...), nil
}

// Requests returns copies of every request received so far.
func (t *ReplayTransport) Requests() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.requests))
	for i, r := range t.requests {
		out[i] = append([]byte(nil), r...)
	}
	return out
}

// Remaining returns the number of replies not yet served.
func (t *ReplayTransport) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.replies) - t.next
}
