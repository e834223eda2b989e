// Package telnet serves the command vocabulary over a line-oriented TCP
// protocol and provides a matching client.
package telnet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/netip"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/example/sigos/internal/core/command"
	"github.com/example/sigos/internal/ctxutil"
	"github.com/example/sigos/internal/ports/primary"
)

// Prompt terminates every block the server writes.
const Prompt = "\n>"

const lineTooLongResponse = "Error: line too long\n" + Prompt

// Options configures a Server.
type Options struct {
	Addr          string
	Echo          bool
	Welcome       string
	LineLimit     command.LineLimit
	RatePerSecond float64       // zero disables rate limiting
	RateBurst     int           // lines allowed back to back
	IdleTimeout   time.Duration // zero disables the idle timeout
}

// Server accepts telnet clients and feeds their lines to a CommandService.
type Server struct {
	svc    primary.CommandService
	opts   Options
	logger *log.Logger

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer creates a server. Call Listen then Serve, or ListenAndServe.
func NewServer(svc primary.CommandService, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if opts.RateBurst < 1 {
		opts.RateBurst = 1
	}
	return &Server{
		svc:    svc,
		opts:   opts,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe binds and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts connections until ctx is cancelled, then closes every open
// connection and waits for their goroutines to finish.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("telnet server is not listening")
	}

	s.logger.Printf("telnet listening on %s", ln.Addr())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		ln.Close()
		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()
	}()

	var err error
	for {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			if ctx.Err() == nil {
				err = fmt.Errorf("failed to accept connection: %w", acceptErr)
				cancel()
			}
			break
		}

		s.mu.Lock()
		if ctx.Err() != nil {
			s.mu.Unlock()
			conn.Close()
			break
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}

	s.wg.Wait()
	return err
}

// Helper methods

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	session := uuid.New().String()
	ctx = ctxutil.WithSessionID(ctx, session)
	src := remoteAddr(conn)
	s.logger.Printf("session=%s connected from %s", session, conn.RemoteAddr())

	var limiter *rate.Limiter
	if s.opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.RatePerSecond), s.opts.RateBurst)
	}

	if _, err := io.WriteString(conn, s.opts.Welcome+Prompt); err != nil {
		return
	}

	br := bufio.NewReader(&iacReader{r: conn})
	for {
		if s.opts.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
		}

		raw, overflow, err := readLine(br, s.keepBytes())
		if err != nil {
			s.logDisconnect(session, err)
			return
		}

		line, clampErr := s.opts.LineLimit.Clamp(raw)
		if overflow && clampErr == nil {
			clampErr = command.ErrLineTruncated
		}

		if s.opts.Echo {
			if _, err := io.WriteString(conn, line); err != nil {
				return
			}
		}

		if errors.Is(clampErr, command.ErrLineTooLong) {
			s.logger.Printf("session=%s rejected line: %v", session, clampErr)
			if _, err := io.WriteString(conn, lineTooLongResponse); err != nil {
				return
			}
			continue
		}
		if clampErr != nil {
			s.logger.Printf("session=%s %v", session, clampErr)
		}

		if len(command.Tokens(line)) == 0 {
			if _, err := io.WriteString(conn, Prompt); err != nil {
				return
			}
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		resp, err := s.svc.Execute(ctx, primary.ExecuteRequest{
			Line:      line,
			Source:    src,
			Timestamp: time.Now(),
		})
		if err != nil {
			s.logger.Printf("session=%s execute failed: %v", session, err)
			return
		}
		if _, err := io.WriteString(conn, resp.Response); err != nil {
			return
		}
	}
}

// keepBytes is how much of a line is buffered before the rest is dropped.
// Reject needs one byte past Max to notice; truncate needs a rune's worth
// to find the boundary.
func (s *Server) keepBytes() int {
	if s.opts.LineLimit.Max <= 0 {
		return command.DefaultMaxLineLength * 64
	}
	return s.opts.LineLimit.Max + utf8.UTFMax
}

func (s *Server) logDisconnect(session string, err error) {
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		s.logger.Printf("session=%s disconnected", session)
	case errors.As(err, &netErr) && netErr.Timeout():
		s.logger.Printf("session=%s idle timeout", session)
	default:
		s.logger.Printf("session=%s read failed: %v", session, err)
	}
}

// readLine reads one '\n' terminated line, dropping "\r\n" endings. At most
// keep bytes are returned; overflow reports whether anything was dropped.
// A final unterminated line is returned with a nil error.
func readLine(br *bufio.Reader, keep int) (string, bool, error) {
	var buf []byte
	overflow := false
	for {
		chunk, err := br.ReadSlice('\n')
		if room := keep - len(buf); room > 0 {
			if len(chunk) > room {
				buf = append(buf, chunk[:room]...)
				overflow = true
			} else {
				buf = append(buf, chunk...)
			}
		} else if len(chunk) > 0 {
			overflow = true
		}

		switch {
		case err == nil:
			return trimEOL(buf), overflow, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && len(buf) > 0:
			return trimEOL(buf), overflow, nil
		default:
			return "", false, err
		}
	}
}

func trimEOL(buf []byte) string {
	if n := len(buf); n > 0 && buf[n-1] == '\n' {
		buf = buf[:len(buf)-1]
	}
	if n := len(buf); n > 0 && buf[n-1] == '\r' {
		buf = buf[:n-1]
	}
	return string(buf)
}

func remoteAddr(conn net.Conn) netip.Addr {
	if tcp, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return tcp.AddrPort().Addr().Unmap()
	}
	ap, err := netip.ParseAddrPort(conn.RemoteAddr().String())
	if err != nil {
		return netip.Addr{}
	}
	return ap.Addr().Unmap()
}

// iacReader drops telnet negotiation: each IAC (0xFF) byte and the two bytes
// after it. NUL bytes are dropped too.
type iacReader struct {
	r       io.Reader
	discard int
}

func (t *iacReader) Read(p []byte) (int, error) {
	for {
		n, err := t.r.Read(p)
		out := 0
		for _, b := range p[:n] {
			switch {
			case t.discard > 0:
				t.discard--
			case b == 0xFF:
				t.discard = 2
			case b == 0:
			default:
				p[out] = b
				out++
			}
		}
		if out > 0 || err != nil {
			return out, err
		}
	}
}
