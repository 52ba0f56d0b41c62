package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// ErrHostNotFound is returned when DNS has no address records for the
// endpoint host.
var ErrHostNotFound = errors.New("host not found")

// Resolver resolves endpoint hosts ahead of dialing.
type Resolver struct {
	server string
	client *dns.Client
}

// NewResolver builds a resolver querying server ("ip:port"). An empty
// server uses the system configuration from /etc/resolv.conf.
func NewResolver(server string) *Resolver {
	return &Resolver{
		server: server,
		client: new(dns.Client),
	}
}

// Preflight resolves host to its addresses. IP literals pass through
// without a lookup.
func (r *Resolver) Preflight(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{host}, nil
	}

	server := r.server
	if server == "" {
		conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			return nil, &Error{Kind: KindDNS, Addr: host, Err: fmt.Errorf("reading resolver config: %w", err)}
		}
		if len(conf.Servers) == 0 {
			return nil, &Error{Kind: KindDNS, Addr: host, Err: errors.New("no DNS servers configured")}
		}
		server = conf.Servers[0] + ":" + conf.Port
	}

	addrs, err := r.query(ctx, host, dns.TypeA, server)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		if addrs, err = r.query(ctx, host, dns.TypeAAAA, server); err != nil {
			return nil, err
		}
	}
	if len(addrs) == 0 {
		return nil, &Error{Kind: KindDNS, Addr: host, Err: fmt.Errorf("%w: %s", ErrHostNotFound, host)}
	}
	return addrs, nil
}

func (r *Resolver) query(ctx context.Context, host string, qtype uint16, server string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, &Error{Kind: KindDNS, Addr: host, Err: err}
	}
	if resp.Rcode == dns.RcodeNameError {
		return nil, &Error{Kind: KindDNS, Addr: host, Err: fmt.Errorf("%w: %s", ErrHostNotFound, host)}
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, &Error{Kind: KindDNS, Addr: host, Err: fmt.Errorf("lookup %s: rcode=%d", host, resp.Rcode)}
	}

	var addrs []string
	for _, rr := range resp.Answer {
		switch rec := rr.(type) {
		case *dns.A:
			addrs = append(addrs, rec.A.String())
		case *dns.AAAA:
			addrs = append(addrs, rec.AAAA.String())
		}
	}
	return addrs, nil
}
