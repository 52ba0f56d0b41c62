package session

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/atomic"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/metrics"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/parser"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/transport"
)

var (
	// ErrNotActive indicates an operation that needs an ACTIVE session.
	ErrNotActive = errors.New("session not active")
	// ErrClosed indicates the session has been closed.
	ErrClosed = errors.New("session closed")
	// ErrTimeout indicates a receive or await deadline expired.
	ErrTimeout = errors.New("timed out")
)

// AuthError reports a rejected or unclassifiable login exchange.
type AuthError struct {
	Reason string
	Code   string // reject code when the endpoint supplied one
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authentication rejected with code %s: %s", e.Code, e.Reason)
	}
	return "authentication failed: " + e.Reason
}

// SequenceMismatchError describes an inbound sequence number that did
// not match the expected counter. It is reported through the event
// channel and logs; receive itself does not fail on it.
type SequenceMismatchError struct {
	Expected  uint64
	Observed  uint64
	Duplicate bool
}

func (e *SequenceMismatchError) Error() string {
	if e.Duplicate {
		return fmt.Sprintf("duplicate input sequence %d, counter at %d", e.Observed, e.Expected-1)
	}
	return fmt.Sprintf("input sequence gap: expected %d, observed %d", e.Expected, e.Observed)
}

// Credentials authenticate the logical terminal at login.
type Credentials struct {
	Username string
	Password string
}

// Config carries the session parameters. BIC and Credentials.Username
// are required, and Host and Port are required unless a Dialer is
// injected. Zero durations select defaults; a negative
// HeartbeatInterval disables the heartbeat.
type Config struct {
	Host        string
	Port        int
	BIC         message.BIC
	Credentials Credentials

	TLS      *tls.Config
	Resolver *transport.Resolver

	ConnectTimeout    time.Duration // dial plus login exchange, default 30s
	IOTimeout         time.Duration // per-frame deadline, default 30s
	HeartbeatInterval time.Duration // default 30s, negative disables
	HeartbeatGrace    time.Duration // wait for the heartbeat echo, default 10s

	AutoReconnect        bool
	MaxReconnectAttempts int // 0 means retry until the session closes

	DuplicateWindow time.Duration // inbound duplicate detection, default 24h
	EventBuffer     int           // lifecycle event channel, default 32
	ReceiveBuffer   int           // inbound message queue, default 64

	Store    store.Store      // optional, enables counter resumption
	Registry *parser.Registry // defaults to the standard MT and MX codecs
	Logger   *slog.Logger
	Metrics  *metrics.Metrics // optional

	// Dialer overrides transport establishment, used for in-process
	// endpoints. Defaults to transport.Dial.
	Dialer func(ctx context.Context, cfg transport.Config) (*transport.Stream, error)
}

// Session is one logical terminal session against a FIN endpoint. It
// owns the connection, the login exchange, both sequence counters,
// acknowledgement correlation and the heartbeat, and survives
// transport drops through DEGRADED-state reconnection.
type Session struct {
	cfg    Config
	logger *slog.Logger

	machine *fsm.FSM

	mu     sync.RWMutex // guards stream
	stream *transport.Stream

	sendMu sync.Mutex // serializes frame writes to keep output order

	seq        *Sequences
	tracker    *Tracker
	id         *atomic.String
	started    *atomic.Bool
	lastActive *atomic.Int64 // unix nanos of the last frame in either direction

	events chan Event
	recvQ  chan *message.Message

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	loopWG sync.WaitGroup

	closeOnce sync.Once
	closeErr  error

	reconnecting *atomic.Bool
}

// NewSession validates the configuration and builds a disconnected
// session. Connect establishes it.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.BIC.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	if cfg.Credentials.Username == "" {
		return nil, errors.New("session config: credentials username is required")
	}
	if cfg.Dialer == nil {
		if cfg.Host == "" {
			return nil, errors.New("session config: host is required")
		}
		if cfg.Port <= 0 {
			return nil, errors.New("session config: port is required")
		}
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if cfg.IOTimeout <= 0 {
		cfg.IOTimeout = 30 * time.Second
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
	if cfg.HeartbeatGrace <= 0 {
		cfg.HeartbeatGrace = 10 * time.Second
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 32
	}
	if cfg.ReceiveBuffer <= 0 {
		cfg.ReceiveBuffer = 64
	}
	if cfg.Registry == nil {
		cfg.Registry = parser.NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:          cfg,
		logger:       cfg.Logger.With("lt", cfg.BIC.LogicalTerminal()),
		seq:          NewSequences(string(cfg.BIC), cfg.Store, cfg.Logger),
		tracker:      NewTracker(cfg.DuplicateWindow),
		id:           atomic.NewString(""),
		started:      atomic.NewBool(false),
		lastActive:   atomic.NewInt64(0),
		events:       make(chan Event, cfg.EventBuffer),
		recvQ:        make(chan *message.Message, cfg.ReceiveBuffer),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
		reconnecting: atomic.NewBool(false),
	}
	s.machine = newStateMachine(func(state string) {
		s.logger.Debug("session state changed", "state", state)
		s.cfg.Metrics.StateChanged(state)
		s.emit(Event{Type: EventStateChanged, State: state})
	})
	return s, nil
}

// Connect dials the endpoint, runs the login exchange, restores the
// sequence counters and starts the read and heartbeat loops. The
// session must be DISCONNECTED.
func (s *Session) Connect(ctx context.Context) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	if err := s.transition(eventConnect); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	stream, err := s.dial(ctx)
	if err != nil {
		_ = s.transition(eventDisconnect)
		return fmt.Errorf("connecting to %s: %w", s.endpoint(), err)
	}
	s.setStream(stream)

	if err := s.authenticate(stream); err != nil {
		_ = stream.Close()
		s.setStream(nil)
		_ = s.transition(eventDisconnect)
		return err
	}

	if err := s.seq.Synchronize(ctx); err != nil {
		_ = stream.Close()
		s.setStream(nil)
		_ = s.transition(eventDisconnect)
		return fmt.Errorf("restoring sequence counters: %w", err)
	}
	s.started.Store(true)

	if err := s.transition(eventActivate); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.touch()

	s.loopWG.Add(1)
	go s.readLoop(stream)
	if s.cfg.HeartbeatInterval > 0 {
		s.loopWG.Add(1)
		go s.heartbeatLoop()
	}

	s.logger.Info("session active",
		"endpoint", stream.RemoteAddr(),
		"session_id", s.ID(),
		"input_seq", s.seq.Input(),
		"output_seq", s.seq.Output())
	return nil
}

func (s *Session) dial(ctx context.Context) (*transport.Stream, error) {
	tcfg := transport.Config{
		Host:        s.cfg.Host,
		Port:        s.cfg.Port,
		TLS:         s.cfg.TLS,
		DialTimeout: s.cfg.ConnectTimeout,
		IOTimeout:   s.cfg.IOTimeout,
		Resolver:    s.cfg.Resolver,
	}
	if s.cfg.Dialer != nil {
		return s.cfg.Dialer(ctx, tcfg)
	}
	return transport.Dial(ctx, tcfg)
}

// authenticate runs the login exchange on a fresh stream and stores
// the assigned session identifier.
func (s *Session) authenticate(stream *transport.Stream) error {
	if err := s.transition(eventAuthenticate); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	return s.login(stream)
}

// login performs the credential exchange without touching the state
// machine, so reconnection can re-authenticate from DEGRADED.
func (s *Session) login(stream *transport.Stream) error {
	lt := s.cfg.BIC.LogicalTerminal()
	if err := stream.WriteFrame(LoginRequest(lt, s.cfg.Credentials)); err != nil {
		return fmt.Errorf("sending login: %w", err)
	}

	frame, _, err := stream.ReadFrame(s.cfg.ConnectTimeout)
	if err != nil {
		return fmt.Errorf("reading login response: %w", err)
	}

	verdict := ClassifyLogin(frame)
	switch verdict.Result {
	case LoginAccepted:
		id := verdict.SessionID
		if id == "" {
			id = uuid.NewString()
		}
		s.id.Store(id)
		s.logger.Debug("login accepted", "session_id", id, "marker", verdict.Reason)
		return nil
	case LoginRejected:
		return &AuthError{Reason: verdict.Reason, Code: verdict.Code}
	default:
		return &AuthError{Reason: "unclassifiable login response"}
	}
}

// Close logs out best-effort, tears the connection down, waits for
// the loops and checkpoints the counters. Safe to call more than
// once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		_ = s.transition(eventClose)

		if stream := s.currentStream(); stream != nil {
			// Logout is a courtesy; the endpoint may already be gone.
			_ = stream.WriteFrame(LogoutRequest(s.cfg.BIC.LogicalTerminal()))
		}

		s.cancel()
		close(s.done)
		if stream := s.currentStream(); stream != nil {
			s.closeErr = stream.Close()
		}
		s.loopWG.Wait()

		if s.started.Load() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.seq.Checkpoint(ctx)
		}

		_ = s.transition(eventDisconnect)
		s.logger.Info("session closed",
			"input_seq", s.seq.Input(),
			"output_seq", s.seq.Output())
	})
	return s.closeErr
}

// State returns the current lifecycle state.
func (s *Session) State() string { return s.machine.Current() }

// ID returns the endpoint-assigned session identifier, empty before
// login.
func (s *Session) ID() string { return s.id.Load() }

// LogicalTerminal returns the 12-character terminal address derived
// from the configured BIC.
func (s *Session) LogicalTerminal() string { return s.cfg.BIC.LogicalTerminal() }

// InputSeq returns the sequence number of the last accepted inbound
// message.
func (s *Session) InputSeq() uint64 { return s.seq.Input() }

// OutputSeq returns the last assigned output sequence number.
func (s *Session) OutputSeq() uint64 { return s.seq.Output() }

// LastActivity returns the time of the last frame in either
// direction.
func (s *Session) LastActivity() time.Time {
	n := s.lastActive.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Session) transition(event string) error {
	err := s.machine.Event(context.Background(), event)
	if err == nil {
		return nil
	}
	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		return fmt.Errorf("cannot %s in state %s", event, invalid.State)
	}
	return err
}

func (s *Session) setStream(stream *transport.Stream) {
	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()
}

func (s *Session) currentStream() *transport.Stream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stream
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) endpoint() string {
	if s.cfg.Dialer != nil {
		return "injected dialer"
	}
	return transport.Config{Host: s.cfg.Host, Port: s.cfg.Port}.Addr()
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
