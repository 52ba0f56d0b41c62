package fin

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/enforcement"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/gpi"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/ledger"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/metrics"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/parser"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/reject"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/screening"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/session"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store/badgerdb"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store/mongodb"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/transport"
)

var (
	// ErrNotConnected indicates an operation that needs an established
	// session.
	ErrNotConnected = errors.New("not connected")

	// ErrClosed indicates the client has been closed.
	ErrClosed = errors.New("client closed")
)

// ResultOutcome classifies a completed Send.
type ResultOutcome string

const (
	ResultAcked  ResultOutcome = "ACKED"
	ResultNacked ResultOutcome = "NACKED"
)

// SendResult is the counterparty's verdict on a sent message. Nack is
// set for NACKED results and carries the dictionary's retry guidance.
type SendResult struct {
	Outcome ResultOutcome
	Message *message.Message
	Nack    *enforcement.Response
}

// Option adjusts client construction.
type Option func(*Client)

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithStore injects a durable store, overriding the configured
// backend. Injected stores are not closed by Close.
func WithStore(st store.Store) Option {
	return func(c *Client) { c.store = st }
}

// WithScreener injects a screener, overriding the configured one.
func WithScreener(s screening.Screener) Option {
	return func(c *Client) { c.screener = s }
}

// WithMetrics injects a metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithDialer overrides transport establishment, used for in-process
// endpoints.
func WithDialer(d func(ctx context.Context, cfg transport.Config) (*transport.Stream, error)) Option {
	return func(c *Client) { c.dialer = d }
}

// Client is the connector's business-facing API. It owns the durable
// store, the dictionaries and the ledger for its whole lifetime, and
// one protocol session at a time between Connect and Close.
type Client struct {
	cfg    *Config
	logger *slog.Logger

	store    store.Store
	ownStore bool
	parsers  *parser.Registry
	registry *reject.Registry
	ledger   *ledger.Ledger
	enforcer *enforcement.Enforcer
	screener screening.Screener
	metrics  *metrics.Metrics
	tracker  *gpi.Client
	tlsConf  *tls.Config
	dialer   func(ctx context.Context, cfg transport.Config) (*transport.Stream, error)

	mu      sync.Mutex
	session *session.Session
	closed  bool
}

// NewClient wires the connector components from cfg. The durable store
// is opened here so the ledger and dictionaries work before Connect,
// which matters when a restart needs to answer case queries first.
func NewClient(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.metrics == nil && cfg.Metrics.Enabled {
		c.metrics = metrics.New(nil)
	}

	if c.store == nil {
		st, err := openStore(ctx, cfg.Store, c.logger)
		if err != nil {
			return nil, err
		}
		c.store = st
		c.ownStore = true
	}

	c.parsers = parser.NewRegistry()
	c.registry = reject.NewRegistry(reject.Config{Store: c.store, Logger: c.logger})

	led, err := ledger.NewLedger(ledger.Config{
		Store:       c.store,
		Institution: cfg.Connection.BIC,
		Logger:      c.logger,
	})
	if err != nil {
		return nil, err
	}
	c.ledger = led

	if c.screener == nil {
		switch {
		case cfg.Screening.Endpoint != "":
			c.screener, err = screening.NewHTTPScreener(screening.HTTPConfig{
				Endpoint: cfg.Screening.Endpoint,
				Token:    cfg.Screening.Token,
			})
			if err != nil {
				return nil, err
			}
		case len(cfg.Screening.DenyList) > 0:
			c.screener = screening.NewStaticScreener(cfg.Screening.DenyList...)
		}
	}

	c.enforcer, err = enforcement.NewEnforcer(enforcement.Config{
		Ledger:   c.ledger,
		Registry: c.registry,
		Screener: c.screener,
		BIC:      message.BIC(cfg.Connection.BIC),
		Metrics:  c.metrics,
		Logger:   c.logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.GPI.Endpoint != "" {
		c.tracker, err = gpi.NewClient(gpi.Config{
			BaseURL: cfg.GPI.Endpoint,
			Token:   cfg.GPI.Token,
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.Connection.TLS.Enabled {
		tlsConf, err := transport.LoadTLSConfig(
			cfg.Connection.TLS.CertFile,
			cfg.Connection.TLS.KeyFile,
			cfg.Connection.TLS.CAFile,
		)
		if err != nil {
			return nil, err
		}
		tlsConf.ServerName = cfg.Connection.TLS.ServerName
		if tlsConf.ServerName == "" {
			tlsConf.ServerName = cfg.Connection.Host
		}
		c.tlsConf = tlsConf
	}

	return c, nil
}

func openStore(ctx context.Context, cfg StoreConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemory(), nil
	case "badger":
		return badgerdb.NewStore(badgerdb.Config{Path: cfg.Badger.Path, Logger: logger})
	case "mongodb":
		return mongodb.NewStore(ctx, &mongodb.Config{
			URI:        cfg.MongoDB.URI,
			Database:   cfg.MongoDB.Database,
			Collection: cfg.MongoDB.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Connect establishes the protocol session: dial, login, sequence
// restoration, read and heartbeat loops. The returned session is also
// reachable through Session.
func (c *Client) Connect(ctx context.Context) (*session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.session != nil && c.session.State() != session.StateDisconnected {
		return nil, fmt.Errorf("session already established in state %s", c.session.State())
	}

	var seqStore store.Store
	if c.cfg.Session.SequenceSync {
		seqStore = c.store
	}
	var resolver *transport.Resolver
	if c.cfg.Connection.DNSServer != "" {
		resolver = transport.NewResolver(c.cfg.Connection.DNSServer)
	}

	s, err := session.NewSession(session.Config{
		Host: c.cfg.Connection.Host,
		Port: c.cfg.Connection.Port,
		BIC:  message.BIC(c.cfg.Connection.BIC),
		Credentials: session.Credentials{
			Username: c.cfg.Connection.Credentials.Username,
			Password: c.cfg.Connection.Credentials.Password,
		},
		TLS:                  c.tlsConf,
		Resolver:             resolver,
		ConnectTimeout:       c.cfg.Connection.ConnectTimeout,
		IOTimeout:            c.cfg.Connection.IOTimeout,
		HeartbeatInterval:    c.cfg.Session.HeartbeatInterval,
		HeartbeatGrace:       c.cfg.Session.HeartbeatGrace,
		AutoReconnect:        c.cfg.Session.AutoReconnect,
		MaxReconnectAttempts: c.cfg.Session.MaxReconnectAttempts,
		Store:                seqStore,
		Registry:             c.parsers,
		Logger:               c.logger,
		Metrics:              c.metrics,
		Dialer:               c.dialer,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}

	c.session = s
	return s, nil
}

// Session returns the current protocol session, nil before Connect.
func (c *Client) Session() *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) currentSession() (*session.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.session == nil {
		return nil, ErrNotConnected
	}
	return c.session, nil
}

// Send validates and screens msg, writes it to the wire and waits for
// the counterparty's verdict. An acknowledged message yields an ACKED
// result; a retryable or warning rejection yields a NACKED result
// carrying the dictionary guidance; a terminal rejection is an error
// raised after the rejection record and any investigation case are
// persisted.
func (c *Client) Send(ctx context.Context, msg *message.Message) (*SendResult, error) {
	s, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errors.New("nil message")
	}

	if err := c.enforcer.ValidateOutbound(ctx, msg); err != nil {
		return nil, fmt.Errorf("outbound validation: %w", err)
	}
	corr := msg.CorrelationID()
	if corr == "" {
		return nil, errors.New("message has no correlation identifier")
	}

	start := time.Now()
	if err := s.Send(ctx, msg); err != nil {
		return nil, err
	}

	outcome, err := s.Await(ctx, corr, 0)
	if err != nil {
		return nil, fmt.Errorf("awaiting acknowledgement of %s: %w", corr, err)
	}
	c.metrics.ObserveSendLatency(time.Since(start))

	if outcome.Acked {
		msg.Status = message.StatusAcked
		msg.AcknowledgedAt = time.Now()
		return &SendResult{Outcome: ResultAcked, Message: msg}, nil
	}

	msg.Status = message.StatusNacked
	resp, err := c.enforcer.HandleNack(ctx, msg, outcome.Code)
	if err != nil {
		return nil, err
	}
	return &SendResult{Outcome: ResultNacked, Message: msg, Nack: resp}, nil
}

// Receive returns the next inbound business message, waiting up to
// timeout (the configured IO timeout when zero).
func (c *Client) Receive(ctx context.Context, timeout time.Duration) (*message.Message, error) {
	s, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	return s.Receive(ctx, timeout)
}

// ParseRejectCode classifies a reject code under the enforcement
// policy. See enforcement.Enforcer.ParseRejectCode.
func (c *Client) ParseRejectCode(ctx context.Context, code, messageID string) (*enforcement.Response, error) {
	return c.enforcer.ParseRejectCode(ctx, code, messageID)
}

// OpenInvestigationCase raises an inquiry about a message.
func (c *Client) OpenInvestigationCase(ctx context.Context, messageID, inquiryType, details string) (*ledger.Case, error) {
	return c.ledger.OpenCase(ctx, messageID, inquiryType, details)
}

// QueryInvestigationCase returns a case by id. Absent cases report
// ledger.ErrCaseNotFound.
func (c *Client) QueryInvestigationCase(ctx context.Context, caseID string) (*ledger.Case, error) {
	return c.ledger.GetCase(ctx, caseID)
}

// ListInvestigationCases returns every case, oldest first, optionally
// restricted to one status.
func (c *Client) ListInvestigationCases(ctx context.Context, status ledger.Status) ([]*ledger.Case, error) {
	return c.ledger.Cases(ctx, status)
}

// CloseInvestigationCase resolves and closes a case.
func (c *Client) CloseInvestigationCase(ctx context.Context, caseID, resolution string) (*ledger.Case, error) {
	return c.ledger.CloseCase(ctx, caseID, "api", resolution)
}

// ReloadRejectDictionary swaps in the dictionary held in the durable
// store.
func (c *Client) ReloadRejectDictionary(ctx context.Context) error {
	return c.registry.Reload(ctx)
}

// TrackPayment queries the payment tracker for a UETR.
func (c *Client) TrackPayment(ctx context.Context, uetr string) (*gpi.TransactionStatus, error) {
	if c.tracker == nil {
		return nil, errors.New("gpi tracker not configured")
	}
	return c.tracker.TrackPayment(ctx, uetr)
}

// RecallPayment initiates a payment recall through the tracker.
func (c *Client) RecallPayment(ctx context.Context, uetr, reason string) (*gpi.RecallResult, error) {
	if c.tracker == nil {
		return nil, errors.New("gpi tracker not configured")
	}
	return c.tracker.RecallPayment(ctx, uetr, reason)
}

// Ledger exposes the investigation ledger for history and entry
// operations beyond the case lifecycle calls above.
func (c *Client) Ledger() *ledger.Ledger {
	return c.ledger
}

// Close tears down the session and releases the store. The client is
// not reusable afterwards.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.session != nil {
		if err := c.session.Close(); err != nil {
			errs = append(errs, err)
		}
		c.session = nil
	}
	if c.ownStore {
		if err := c.store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
