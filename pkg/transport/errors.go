package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

// Kind names a class of transport failure. Each class carries its own
// retry policy.
type Kind string

const (
	KindDNS     Kind = "DNS"
	KindRefused Kind = "REFUSED"
	KindTLS     Kind = "TLS"
	KindTimeout Kind = "TIMEOUT"
	KindClosed  Kind = "CLOSED"
	KindIO      Kind = "IO"
)

// Error is a classified transport failure.
type Error struct {
	Kind Kind
	Addr string
	Err  error
}

func (e *Error) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("transport %s (%s): %v", e.Kind, e.Addr, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure class may succeed on a later
// attempt without operator intervention. TLS faults and closed streams
// do not: the first needs a configuration fix, the second a fresh
// session.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindRefused, KindIO:
		return true
	case KindDNS:
		if errors.Is(e.Err, ErrHostNotFound) {
			return false
		}
		var dnsErr *net.DNSError
		if errors.As(e.Err, &dnsErr) && dnsErr.IsNotFound {
			return false
		}
		return true
	default:
		return false
	}
}

// Classify wraps err as a transport Error with its detected kind.
// A nil err returns nil and already classified errors pass through.
func Classify(addr string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Kind: kindOf(err), Addr: addr, Err: err}
}

func kindOf(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindRefused
	}
	var (
		recordErr tls.RecordHeaderError
		verifyErr *tls.CertificateVerificationError
		authErr   x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		certErr   x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &verifyErr) ||
		errors.As(err, &authErr) || errors.As(err, &hostErr) || errors.As(err, &certErr) {
		return KindTLS
	}
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return KindClosed
	}
	return KindIO
}
