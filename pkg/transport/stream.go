package transport

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/parser"
)

// RecommendedCipherSuites are the TLS 1.2 suites accepted for
// interbank links. TLS 1.3 suites are not configurable.
var RecommendedCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// Config describes how to reach the FIN endpoint.
type Config struct {
	Host string
	Port int

	// TLS wraps the connection when non-nil.
	TLS *tls.Config

	// DialTimeout bounds connection establishment including the TLS
	// handshake.
	DialTimeout time.Duration

	// IOTimeout bounds each read and write. Zero means no deadline.
	IOTimeout time.Duration

	// Resolver preflights DNS before dialing when set, so name
	// resolution faults surface as KindDNS instead of a dial error.
	Resolver *Resolver
}

// Addr returns the host:port form of the endpoint.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Stream is a framed connection to a FIN endpoint. One goroutine owns
// reads; writes may come from several and are serialized internally.
type Stream struct {
	conn net.Conn
	r    *bufio.Reader
	addr string

	writeMu   sync.Mutex
	ioTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the configured endpoint.
func Dial(ctx context.Context, cfg Config) (*Stream, error) {
	addr := cfg.Addr()

	if cfg.Resolver != nil {
		if _, err := cfg.Resolver.Preflight(ctx, cfg.Host); err != nil {
			return nil, Classify(addr, err)
		}
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, Classify(addr, err)
	}

	if cfg.TLS != nil {
		tlsConn := tls.Client(conn, cfg.TLS)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			kind := kindOf(err)
			if kind == KindIO || kind == KindClosed {
				kind = KindTLS
			}
			return nil, &Error{Kind: kind, Addr: addr, Err: err}
		}
		conn = tlsConn
	}

	return NewStream(conn, cfg.IOTimeout), nil
}

// NewStream wraps an established connection in the frame codec.
func NewStream(conn net.Conn, ioTimeout time.Duration) *Stream {
	addr := ""
	if ra := conn.RemoteAddr(); ra != nil {
		addr = ra.String()
	}
	return &Stream{
		conn:      conn,
		r:         bufio.NewReader(conn),
		addr:      addr,
		ioTimeout: ioTimeout,
	}
}

// ReadFrame blocks for the next inbound frame, up to timeout when
// positive, else up to the configured IO timeout.
func (s *Stream) ReadFrame(timeout time.Duration) ([]byte, message.Format, error) {
	if timeout <= 0 {
		timeout = s.ioTimeout
	}
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return nil, message.FormatUnknown, Classify(s.addr, err)
	}

	frame, format, err := parser.ScanFrame(s.r)
	if err != nil {
		return nil, format, Classify(s.addr, err)
	}
	return frame, format, nil
}

// WriteFrame writes one frame, appending the CRLF delimiter when the
// frame does not already end with a newline. Concurrent writers are
// serialized so frames never interleave on the wire.
func (s *Stream) WriteFrame(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deadline := time.Time{}
	if s.ioTimeout > 0 {
		deadline = time.Now().Add(s.ioTimeout)
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return Classify(s.addr, err)
	}

	if !bytes.HasSuffix(frame, []byte("\n")) {
		frame = append(append([]byte{}, frame...), '\r', '\n')
	}
	if _, err := s.conn.Write(frame); err != nil {
		return Classify(s.addr, err)
	}
	return nil
}

// RemoteAddr returns the remote endpoint address.
func (s *Stream) RemoteAddr() string { return s.addr }

// Close shuts the connection down. A blocked ReadFrame returns a
// KindClosed error. Safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.conn.Close() })
	return s.closeErr
}

// LoadTLSConfig builds a client tls.Config from a PEM keypair and an
// optional CA bundle, enforcing TLS 1.2 or newer.
func LoadTLSConfig(certFile, keyFile, caFile string) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		CipherSuites: RecommendedCipherSuites,
	}

	if certFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client keypair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("loading CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in CA bundle %s", caFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}
