package telnet

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// ErrTimeout is returned when no prompt arrives within the timeout.
var ErrTimeout = errors.New("no prompt received before the timeout")

// ErrNotConnected is returned when a command is sent on a closed client.
var ErrNotConnected = errors.New("not connected")

// Response is the result of one request/reply exchange.
type Response struct {
	Bytes    []byte        // raw bytes received up to and including the prompt
	Error    error         // transport error, ErrTimeout, or nil
	Duration time.Duration // time from send to prompt
}

// Text returns the reply body with the echoed command and prompt removed.
func (r Response) Text() string {
	s := strings.TrimSuffix(string(r.Bytes), Prompt)
	return strings.Trim(s, "\r\n")
}

// String implements the Stringer interface
func (r Response) String() string {
	return fmt.Sprintf("Response> Rx Bytes: %q\tErrors: %v\tDuration: %v", r.Bytes, r.Error, r.Duration)
}

// Client sends command lines to a telnet server one at a time.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
	buf     bytes.Buffer
	Banner  string
}

// Dial connects to addr and waits for the server's first prompt. timeout
// bounds the connect and every later exchange.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	c := &Client{conn: conn, timeout: timeout}
	banner, err := c.readPrompt()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read banner: %w", err)
	}
	c.Banner = strings.TrimSuffix(string(banner), Prompt)
	return c, nil
}

// Control sends line and waits for the reply. With server echo on, the
// echoed line is the first part of Bytes; Text strips it.
func (c *Client) Control(line string) Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return Response{Error: ErrNotConnected}
	}

	start := time.Now()
	c.conn.SetWriteDeadline(start.Add(c.timeout))
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		return Response{Error: err, Duration: time.Since(start)}
	}

	reply, err := c.readPrompt()
	resp := Response{Bytes: reply, Error: err, Duration: time.Since(start)}
	if err == nil {
		resp.Bytes = bytes.TrimPrefix(reply, []byte(line))
	}
	return resp
}

// Close closes the connection. Later calls to Control fail with ErrNotConnected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// readPrompt reads until the buffered input ends with the prompt.
func (c *Client) readPrompt() ([]byte, error) {
	c.buf.Reset()
	c.conn.SetReadDeadline(time.Now().Add(c.timeout))

	chunk := make([]byte, 1024)
	for {
		n, err := c.conn.Read(chunk)
		c.buf.Write(chunk[:n])
		if bytes.HasSuffix(c.buf.Bytes(), []byte(Prompt)) {
			return append([]byte(nil), c.buf.Bytes()...), nil
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return append([]byte(nil), c.buf.Bytes()...), ErrTimeout
			}
			return append([]byte(nil), c.buf.Bytes()...), err
		}
	}
}
