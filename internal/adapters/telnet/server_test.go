package telnet

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/example/sigos/internal/app"
	"github.com/example/sigos/internal/core/command"
)

const testTimeout = 2 * time.Second

func startServer(t *testing.T, opts Options) *Server {
	t.Helper()

	svc, err := app.NewCommandService(app.LumenOptions{
		StateNames:   []string{"off", "on", "blink-slow", "blink-fast"},
		DefaultState: "off",
	}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewCommandService failed: %v", err)
	}

	opts.Addr = "127.0.0.1:0"
	if opts.LineLimit.Max == 0 {
		opts.LineLimit = command.DefaultLineLimit()
	}
	srv := NewServer(svc, opts, nil)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned error: %v", err)
			}
		case <-time.After(testTimeout):
			t.Error("Serve did not stop after cancel")
		}
	})
	return srv
}

func dial(t *testing.T, srv *Server) *Client {
	t.Helper()
	c, err := Dial(srv.Addr().String(), testTimeout)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
	})
	return c
}

func TestServer_Session(t *testing.T) {
	srv := startServer(t, Options{Echo: true, Welcome: "Signal SW-3"})
	c := dial(t, srv)

	if c.Banner != "Signal SW-3" {
		t.Errorf("Banner = %q, want %q", c.Banner, "Signal SW-3")
	}

	tests := []struct {
		line string
		want string
	}{
		{line: "state lumen request on", want: "ok"},
		{line: "state lumen current", want: "on"},
		{line: "state lumen level set 7", want: "7"},
		{line: "state lumen level set x", want: "Error: Invalid parameter"},
		{line: "foo bar", want: "Error: command not found"},
		{line: "state lumen release all", want: "ok"},
		{line: "state lumen current", want: "off"},
	}

	for _, tt := range tests {
		resp := c.Control(tt.line)
		if resp.Error != nil {
			t.Fatalf("Control(%q) error: %v", tt.line, resp.Error)
		}
		if got := resp.Text(); got != tt.want {
			t.Errorf("Control(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestServer_WireFormat(t *testing.T) {
	srv := startServer(t, Options{Echo: false})
	c := dial(t, srv)

	if resp := c.Control("state lumen level set 7"); string(resp.Bytes) != "\n7\n>" {
		t.Errorf("Bytes = %q, want %q", resp.Bytes, "\n7\n>")
	}
	if resp := c.Control("foo bar"); string(resp.Bytes) != "Error: command not found\n\n>" {
		t.Errorf("Bytes = %q, want %q", resp.Bytes, "Error: command not found\n\n>")
	}
}

func TestServer_Echo(t *testing.T) {
	srv := startServer(t, Options{Echo: true})

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(testTimeout))
	br := bufio.NewReader(conn)

	readUntilPrompt(t, br)
	io.WriteString(conn, "state lumen current\r\n")
	got := readUntilPrompt(t, br)

	if got != "state lumen current\noff\n>" {
		t.Errorf("reply = %q, want echoed line then response", got)
	}
}

func TestServer_LineLimit(t *testing.T) {
	long := "state lumen current " + strings.Repeat("x", 40)

	t.Run("reject", func(t *testing.T) {
		srv := startServer(t, Options{LineLimit: command.LineLimit{Max: 24, Policy: command.PolicyReject}})
		c := dial(t, srv)

		if got := c.Control(long).Text(); got != "Error: line too long" {
			t.Errorf("Control(long) = %q, want line too long", got)
		}
		// The connection stays usable
		if got := c.Control("state lumen current").Text(); got != "off" {
			t.Errorf("Control after reject = %q, want off", got)
		}
	})

	t.Run("truncate", func(t *testing.T) {
		srv := startServer(t, Options{LineLimit: command.LineLimit{Max: 20, Policy: command.PolicyTruncate}})
		c := dial(t, srv)

		// Cut to "state lumen current " which still matches
		if got := c.Control(long).Text(); got != "off" {
			t.Errorf("Control(long) = %q, want off", got)
		}
	})
}

func TestServer_StripsTelnetNegotiation(t *testing.T) {
	srv := startServer(t, Options{})
	c := dial(t, srv)

	line := string([]byte{0xFF, 0xFB, 0x01}) + "state lumen current" + string([]byte{0})
	if got := c.Control(line).Text(); got != "off" {
		t.Errorf("Control with IAC = %q, want off", got)
	}
}

func TestServer_BlankLineReprompts(t *testing.T) {
	srv := startServer(t, Options{})
	c := dial(t, srv)

	resp := c.Control("   ")
	if resp.Error != nil {
		t.Fatalf("Control error: %v", resp.Error)
	}
	if string(resp.Bytes) != Prompt {
		t.Errorf("Bytes = %q, want bare prompt", resp.Bytes)
	}
}

func TestServer_RequestsComeFromPeerAddress(t *testing.T) {
	srv := startServer(t, Options{})
	c := dial(t, srv)

	c.Control("state lumen request blink-slow")
	got := c.Control("state lumen print").Text()
	if !strings.Contains(got, ": blink-slow, 127.0.0.1") {
		t.Errorf("print = %q, want request from 127.0.0.1", got)
	}
}

func TestServer_RateLimit(t *testing.T) {
	srv := startServer(t, Options{RatePerSecond: 10, RateBurst: 1})
	c := dial(t, srv)

	start := time.Now()
	for i := 0; i < 4; i++ {
		if resp := c.Control("state lumen current"); resp.Error != nil {
			t.Fatalf("Control error: %v", resp.Error)
		}
	}
	// Burst of 1, then one line per 100ms
	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("4 lines took %v, want at least 250ms", elapsed)
	}
}

func TestServer_IdleTimeout(t *testing.T) {
	srv := startServer(t, Options{IdleTimeout: 50 * time.Millisecond})
	c := dial(t, srv)

	time.Sleep(200 * time.Millisecond)
	if resp := c.Control("state lumen current"); resp.Error == nil {
		t.Error("Control succeeded on an idle-closed connection")
	}
}

func TestServer_ShutdownClosesClients(t *testing.T) {
	svc, _ := app.NewCommandService(app.LumenOptions{StateNames: []string{"off", "on"}}, nil, nil, nil)
	srv := NewServer(svc, Options{Addr: "127.0.0.1:0"}, nil)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	c := dial(t, srv)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil", err)
		}
	case <-time.After(testTimeout):
		t.Fatal("Serve did not return after cancel")
	}

	if resp := c.Control("state lumen current"); resp.Error == nil {
		t.Error("Control succeeded after shutdown")
	}
}

func TestServer_ServeWithoutListen(t *testing.T) {
	srv := NewServer(nil, Options{}, nil)
	if err := srv.Serve(context.Background()); err == nil {
		t.Error("Serve() error = nil, want not listening")
	}
	if srv.Addr() != nil {
		t.Error("Addr() before Listen should be nil")
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		keep         int
		wantLine     string
		wantOverflow bool
	}{
		{name: "lf", input: "help\n", keep: 64, wantLine: "help"},
		{name: "crlf", input: "help\r\n", keep: 64, wantLine: "help"},
		{name: "unterminated", input: "help", keep: 64, wantLine: "help"},
		{name: "empty", input: "\n", keep: 64, wantLine: ""},
		{name: "overflow", input: "abcdefgh\n", keep: 4, wantLine: "abcd", wantOverflow: true},
		{name: "exact fit", input: "abc\n", keep: 4, wantLine: "abc"},
		{name: "longer than buffer", input: strings.Repeat("a", 100) + "\n", keep: 30, wantLine: strings.Repeat("a", 30), wantOverflow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Smallest bufio size forces the ErrBufferFull path on long input
			br := bufio.NewReaderSize(strings.NewReader(tt.input), 16)
			line, overflow, err := readLine(br, tt.keep)
			if err != nil {
				t.Fatalf("readLine() error: %v", err)
			}
			if line != tt.wantLine {
				t.Errorf("readLine() line = %q, want %q", line, tt.wantLine)
			}
			if overflow != tt.wantOverflow {
				t.Errorf("readLine() overflow = %v, want %v", overflow, tt.wantOverflow)
			}
		})
	}
}

func TestReadLine_EOF(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("a\n"))
	if _, _, err := readLine(br, 16); err != nil {
		t.Fatalf("first readLine() error: %v", err)
	}
	if _, _, err := readLine(br, 16); !errors.Is(err, io.EOF) {
		t.Errorf("second readLine() error = %v, want EOF", err)
	}
}

func TestIACReader(t *testing.T) {
	input := []byte{'h', 0xFF, 0xFD, 0x03, 'i', 0, '\n'}
	out, err := io.ReadAll(&iacReader{r: bytes.NewReader(input)})
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if string(out) != "hi\n" {
		t.Errorf("iacReader output = %q, want %q", out, "hi\n")
	}
}

func readUntilPrompt(t *testing.T, br *bufio.Reader) string {
	t.Helper()
	var b strings.Builder
	for !strings.HasSuffix(b.String(), Prompt) {
		c, err := br.ReadByte()
		if err != nil {
			t.Fatalf("read failed after %q: %v", b.String(), err)
		}
		b.WriteByte(c)
	}
	return b.String()
}
