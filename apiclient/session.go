package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	apitypes "github.com/Alia5/xrinput/apitypes"
)

// Session is an open driving stream. Frames are answered in order, so Send
// is safe to call from one goroutine at a time only.
type Session struct {
	conn  net.Conn
	r     *bufio.Reader
	Hello apitypes.SessionHello

	mu     sync.Mutex
	closed bool
}

// OpenSession connects to the session stream and waits for the server
// greeting. A server already driven by another host answers with a 409
// problem, returned here as *apitypes.ApiError.
func (c *Client) OpenSession(ctx context.Context) (*Session, error) {
	if c.transport.mock != nil {
		return nil, fmt.Errorf("stream connections not supported with mock transport")
	}

	conn, err := c.transport.dial(ctx)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	if _, err := conn.Write([]byte("session\x00")); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}

	s := &Session{conn: conn, r: bufio.NewReader(conn)}
	line, err := s.readLine(ctx)
	if err != nil {
		conn.Close()
		return nil, err
	}
	hello, err := parse[apitypes.SessionHello](line)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.Hello = *hello
	return s, nil
}

// Send writes one frame and waits for its result.
func (s *Session) Send(ctx context.Context, f apitypes.Frame) (*apitypes.FrameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("session closed")
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(dl)
	}
	if _, err := s.conn.Write(append(b, '\n')); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}
	line, err := s.readLine(ctx)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.FrameResult](line)
}

func (s *Session) readLine(ctx context.Context) (string, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetReadDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	line, err := s.r.ReadString('\n')
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("read: %w", err)
	}
	return line[:len(line)-1], nil
}

// Close ends the session and frees the server's driving slot.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
