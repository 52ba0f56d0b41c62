package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
)

const testFrame = "{1:F01BANKBEBBAXXX0000000001}{4:\n:20:REF1\n-}"

func TestStreamWriteFrame(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	s := NewStream(client, time.Second)
	defer s.Close()

	errc := make(chan error, 1)
	go func() { errc <- s.WriteFrame([]byte(testFrame)) }()

	want := testFrame + "\r\n"
	got := make([]byte, len(want))
	if _, err := io.ReadFull(server, got); err != nil {
		t.Fatalf("reading wire bytes: %v", err)
	}
	if err := <-errc; err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if string(got) != want {
		t.Errorf("wire bytes = %q, want %q", got, want)
	}
}

func TestStreamReadFrame(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	s := NewStream(client, time.Second)
	defer s.Close()

	go server.Write([]byte(testFrame + "\r\n"))

	frame, format, err := s.ReadFrame(time.Second)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if format != message.FormatMT {
		t.Errorf("format = %s, want MT", format)
	}
	if string(frame) != testFrame {
		t.Errorf("frame = %q, want %q", frame, testFrame)
	}

	go server.Write([]byte("LOGIN ACCEPTED SESSION 4021\r\n"))

	frame, format, err = s.ReadFrame(time.Second)
	if err != nil {
		t.Fatalf("ReadFrame text line: %v", err)
	}
	if format != message.FormatUnknown {
		t.Errorf("format = %s, want UNKNOWN", format)
	}
	if string(frame) != "LOGIN ACCEPTED SESSION 4021" {
		t.Errorf("frame = %q", frame)
	}
}

func TestStreamReadTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	s := NewStream(client, 0)
	defer s.Close()

	_, _, err := s.ReadFrame(30 * time.Millisecond)
	var te *Error
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if te.Kind != KindTimeout {
		t.Errorf("kind = %s, want TIMEOUT", te.Kind)
	}
	if !te.Retryable() {
		t.Error("timeout not retryable")
	}
}

func TestStreamClose(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	s := NewStream(client, time.Second)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	_, _, err := s.ReadFrame(time.Second)
	var te *Error
	if !errors.As(err, &te) || te.Kind != KindClosed {
		t.Errorf("read after close = %v, want KindClosed", err)
	}
}

func TestStreamRemoteClose(t *testing.T) {
	client, server := net.Pipe()
	s := NewStream(client, time.Second)
	defer s.Close()

	go server.Close()

	_, _, err := s.ReadFrame(time.Second)
	var te *Error
	if !errors.As(err, &te) || te.Kind != KindClosed {
		t.Errorf("read after remote close = %v, want KindClosed", err)
	}
	if te.Retryable() {
		t.Error("closed stream classified retryable")
	}
}

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "fin.example", IsNotFound: true}, KindDNS},
		{"dns timeout", &net.DNSError{Err: "i/o timeout", Name: "fin.example", IsTimeout: true}, KindDNS},
		{"refused", refused, KindRefused},
		{"tls record", tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}, KindTLS},
		{"deadline", os.ErrDeadlineExceeded, KindTimeout},
		{"ctx deadline", context.DeadlineExceeded, KindTimeout},
		{"eof", io.EOF, KindClosed},
		{"closed pipe", io.ErrClosedPipe, KindClosed},
		{"net closed", net.ErrClosed, KindClosed},
		{"ctx canceled", context.Canceled, KindClosed},
		{"generic", errors.New("wire fault"), KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify("host:9999", tt.err)
			var te *Error
			if !errors.As(err, &te) {
				t.Fatalf("Classify returned %T", err)
			}
			if te.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", te.Kind, tt.kind)
			}
			if !errors.Is(err, tt.err) {
				t.Error("classified error does not unwrap to the original")
			}
		})
	}

	if Classify("host:9999", nil) != nil {
		t.Error("Classify(nil) != nil")
	}

	once := Classify("host:9999", io.EOF)
	if again := Classify("host:9999", once); again != once {
		t.Error("already classified error was rewrapped")
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind      Kind
		err       error
		retryable bool
	}{
		{KindTimeout, os.ErrDeadlineExceeded, true},
		{KindRefused, syscall.ECONNREFUSED, true},
		{KindIO, errors.New("short write"), true},
		{KindDNS, &net.DNSError{IsTimeout: true}, true},
		{KindDNS, &net.DNSError{IsNotFound: true}, false},
		{KindDNS, ErrHostNotFound, false},
		{KindTLS, tls.RecordHeaderError{}, false},
		{KindClosed, net.ErrClosed, false},
	}

	for _, tt := range tests {
		e := &Error{Kind: tt.kind, Err: tt.err}
		if got := e.Retryable(); got != tt.retryable {
			t.Errorf("(%s %v).Retryable() = %v, want %v", tt.kind, tt.err, got, tt.retryable)
		}
	}
}

func TestLoadTLSConfig(t *testing.T) {
	cfg, err := LoadTLSConfig("", "", "")
	if err != nil {
		t.Fatalf("LoadTLSConfig: %v", err)
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}

	if _, err := LoadTLSConfig("/nonexistent/cert.pem", "/nonexistent/key.pem", ""); err == nil {
		t.Error("missing keypair accepted")
	}

	bad := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(bad, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTLSConfig("", "", bad); err == nil {
		t.Error("garbage CA bundle accepted")
	}
}

func TestResolverIPLiteral(t *testing.T) {
	r := NewResolver("")
	addrs, err := r.Preflight(context.Background(), "192.0.2.1")
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "192.0.2.1" {
		t.Errorf("addrs = %v", addrs)
	}
}

func TestResolverPreflight(t *testing.T) {
	mux := dns.NewServeMux()
	mux.HandleFunc("fin.example.", func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		if req.Question[0].Qtype == dns.TypeA {
			rr, err := dns.NewRR("fin.example. 60 IN A 192.0.2.10")
			if err == nil {
				m.Answer = append(m.Answer, rr)
			}
		}
		_ = w.WriteMsg(m)
	})
	mux.HandleFunc(".", func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetRcode(req, dns.RcodeNameError)
		_ = w.WriteMsg(m)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	srv := &dns.Server{PacketConn: pc, Handler: mux}
	go func() { _ = srv.ActivateAndServe() }()
	defer srv.Shutdown()

	r := NewResolver(pc.LocalAddr().String())
	ctx := context.Background()

	addrs, err := r.Preflight(ctx, "fin.example")
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if len(addrs) != 1 || addrs[0] != "192.0.2.10" {
		t.Errorf("addrs = %v", addrs)
	}

	_, err = r.Preflight(ctx, "missing.example")
	var te *Error
	if !errors.As(err, &te) || te.Kind != KindDNS {
		t.Fatalf("err = %v, want KindDNS", err)
	}
	if !errors.Is(err, ErrHostNotFound) {
		t.Errorf("err = %v, want ErrHostNotFound", err)
	}
	if te.Retryable() {
		t.Error("NXDOMAIN classified retryable")
	}
}
