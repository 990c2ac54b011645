package client

// EtherNet/IP session transport: unconnected messaging over SendRRData.

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/tturner/cipwire/internal/cip/codec"
	"github.com/tturner/cipwire/internal/enip"
	"github.com/tturner/cipwire/internal/errors"
)

// DefaultPort is the EtherNet/IP explicit messaging TCP port.
const DefaultPort = 44818

// Session is a registered EtherNet/IP session over one TCP connection. It
// implements RoundTripper; requests are serialized.
type Session struct {
	mu            sync.Mutex
	conn          net.Conn
	addr          string
	handle        uint32
	senderContext [8]byte
	timeout       time.Duration
}

var _ RoundTripper = (*Session)(nil)

// Dial connects to addr and registers a session.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Session, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.WrapNetworkError(fmt.Errorf("dial TCP: %w", err), addr)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			conn.Close()
			return nil, fmt.Errorf("set keep-alive: %w", err)
		}
	}
	s, err := NewSession(ctx, conn, timeout)
	if err != nil {
		conn.Close()
		return nil, errors.WrapNetworkError(err, addr)
	}
	s.addr = addr
	return s, nil
}

// NewSession registers a session over an established connection.
func NewSession(ctx context.Context, conn net.Conn, timeout time.Duration) (*Session, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &Session{conn: conn, addr: conn.RemoteAddr().String(), timeout: timeout}
	if _, err := rand.Read(s.senderContext[:]); err != nil {
		return nil, fmt.Errorf("sender context: %w", err)
	}

	reply, err := s.exchange(ctx, enip.BuildRegisterSession(s.senderContext), enip.ENIPCommandRegisterSession)
	if err != nil {
		return nil, fmt.Errorf("register session: %w", err)
	}
	if reply.SessionID == 0 {
		return nil, fmt.Errorf("register session: device returned session handle 0")
	}
	s.handle = reply.SessionID
	return s, nil
}

// Handle returns the registered session handle.
func (s *Session) Handle() uint32 { return s.handle }

// RoundTrip sends a CPF packet in SendRRData and returns the reply CPF packet.
func (s *Session) RoundTrip(ctx context.Context, request []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, fmt.Errorf("session closed")
	}
	reply, err := s.exchangeLocked(ctx, enip.BuildSendRRData(s.handle, s.senderContext, request), enip.ENIPCommandSendRRData)
	if err != nil {
		return nil, err
	}
	if reply.SessionID != s.handle {
		return nil, fmt.Errorf("SendRRData reply for session 0x%08X, want 0x%08X", reply.SessionID, s.handle)
	}
	cpf, err := enip.ParseSendRRData(reply.Data)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), cpf...), nil
}

// Close unregisters the session and closes the connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
	_, _ = s.conn.Write(enip.BuildUnregisterSession(s.handle, s.senderContext)) // best effort
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Session) exchange(ctx context.Context, frame []byte, command uint16) (enip.ENIPEncapsulation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exchangeLocked(ctx, frame, command)
}

func (s *Session) exchangeLocked(ctx context.Context, frame []byte, command uint16) (enip.ENIPEncapsulation, error) {
	var reply enip.ENIPEncapsulation
	deadline := time.Now().Add(s.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := s.conn.SetDeadline(deadline); err != nil {
		return reply, fmt.Errorf("set deadline: %w", err)
	}
	if _, err := s.conn.Write(frame); err != nil {
		return reply, fmt.Errorf("send: %w", err)
	}
	raw, err := readFrame(s.conn)
	if err != nil {
		return reply, fmt.Errorf("receive: %w", err)
	}
	reply, err = enip.DecodeENIP(raw)
	if err != nil {
		return reply, err
	}
	if reply.Command != command {
		return reply, fmt.Errorf("reply command 0x%04X, want 0x%04X", reply.Command, command)
	}
	if reply.Status != enip.ENIPStatusSuccess {
		return reply, fmt.Errorf("encapsulation status 0x%08X", reply.Status)
	}
	if reply.SenderContext != s.senderContext {
		return reply, fmt.Errorf("sender context not echoed")
	}
	return reply, nil
}

// readFrame reads exactly one encapsulation frame.
func readFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, enip.HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	length := int(codec.ByteOrder.Uint16(header[2:4]))
	frame := make([]byte, enip.HeaderSize+length)
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[enip.HeaderSize:]); err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return frame, nil
}
