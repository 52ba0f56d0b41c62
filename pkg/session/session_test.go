package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/mt"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/transport"
)

// endpoint is a scripted FIN counterparty on the far side of a pipe.
// It answers login, acknowledges business frames and records what it
// received.
type endpoint struct {
	t          *testing.T
	stream     *transport.Stream
	lt         string
	session    string
	loginReply string
	nackCode   string // NACK business frames with this code when set
	silent     bool   // acknowledge nothing

	mu       sync.Mutex
	seq      uint64
	received []*message.Message
}

func newEndpoint(t *testing.T, conn net.Conn) *endpoint {
	e := &endpoint{
		t:          t,
		stream:     transport.NewStream(conn, time.Second),
		lt:         "SWFTUS33AXXX",
		session:    "4021",
		loginReply: "LOGIN ACCEPTED SESSION 4021",
	}
	return e
}

func (e *endpoint) serve() {
	defer e.stream.Close()
	for {
		frame, format, err := e.stream.ReadFrame(200 * time.Millisecond)
		if err != nil {
			var te *transport.Error
			if errors.As(err, &te) && te.Kind == transport.KindTimeout {
				continue
			}
			return
		}

		if format == message.FormatUnknown {
			line := string(frame)
			switch {
			case strings.HasPrefix(line, "LOGIN "):
				_ = e.stream.WriteFrame([]byte(e.loginReply))
			case strings.HasPrefix(line, "LOGOUT"):
				return
			}
			continue
		}

		msg, err := mt.Parse(frame)
		if err != nil {
			continue
		}
		e.mu.Lock()
		e.received = append(e.received, msg)
		e.seq++
		seq := e.seq
		e.mu.Unlock()

		if e.silent {
			continue
		}
		corr := msg.CorrelationID()
		if e.nackCode != "" {
			_ = e.stream.WriteFrame(mt.ServiceNack(e.lt, e.session, seq, corr, e.nackCode))
		} else {
			_ = e.stream.WriteFrame(mt.ServiceAck(e.lt, e.session, seq, corr))
		}
	}
}

func (e *endpoint) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.received)
}

func (e *endpoint) frames() []*message.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*message.Message(nil), e.received...)
}

// send pushes an unsolicited frame to the connected session.
func (e *endpoint) send(frame string) {
	if err := e.stream.WriteFrame([]byte(frame)); err != nil {
		e.t.Errorf("endpoint write: %v", err)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startSession wires a session to a scripted endpoint over an
// in-process pipe. mutate adjusts the config, shape the endpoint.
func startSession(t *testing.T, mutate func(*Config), shape func(*endpoint)) (*Session, *endpoint) {
	t.Helper()

	cliConn, srvConn := net.Pipe()
	e := newEndpoint(t, srvConn)
	if shape != nil {
		shape(e)
	}
	go e.serve()

	cfg := Config{
		BIC:               "BANKBEBB",
		Credentials:       Credentials{Username: "alice", Password: "s3cret"},
		ConnectTimeout:    time.Second,
		IOTimeout:         100 * time.Millisecond,
		HeartbeatInterval: -1,
		Logger:            testLogger(),
		Dialer: func(_ context.Context, tc transport.Config) (*transport.Stream, error) {
			return transport.NewStream(cliConn, tc.IOTimeout), nil
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
		_ = e.stream.Close()
	})
	return s, e
}

func buildPayment(t *testing.T, ref string) *message.Message {
	t.Helper()
	msg, err := message.NewMT103(
		message.WithSender("BANKBEBB"),
		message.WithReceiver("SWFTUS33"),
		message.WithReference(ref),
		message.WithAmount("260825", "EUR", "1250,00"),
		message.WithOrderingCustomer("/BE71096123456769\nACME NV"),
		message.WithBeneficiary("/US64SVBKUS6S3300958879\nGLOBEX CORP"),
	).Build()
	if err != nil {
		t.Fatalf("building payment: %v", err)
	}
	return msg
}

func waitEvent(t *testing.T, s *Session, typ EventType, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case evt := <-s.Events():
			if evt.Type == typ {
				return evt
			}
		case <-deadline:
			t.Fatalf("no %s event within %v", typ, timeout)
		}
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSessionConnect(t *testing.T) {
	s, _ := startSession(t, nil, nil)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := s.State(); got != StateActive {
		t.Errorf("state = %s, want ACTIVE", got)
	}
	if got := s.ID(); got != "4021" {
		t.Errorf("session id = %q, want 4021", got)
	}
	if got := s.LogicalTerminal(); got != "BANKBEBBAXXX" {
		t.Errorf("logical terminal = %q", got)
	}

	if err := s.Connect(context.Background()); err == nil {
		t.Error("second Connect accepted on an active session")
	}
}

func TestSessionAuthReject(t *testing.T) {
	s, _ := startSession(t, nil, func(e *endpoint) {
		e.loginReply = "LOGIN REJECTED invalid credentials"
	})

	err := s.Connect(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Connect = %v, want *AuthError", err)
	}
	if got := s.State(); got != StateDisconnected {
		t.Errorf("state after rejected login = %s, want DISCONNECTED", got)
	}
}

func TestSessionSendSequence(t *testing.T) {
	s, e := startSession(t, nil, nil)
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	for i, ref := range []string{"PAY1", "PAY2"} {
		msg := buildPayment(t, ref)
		if err := s.Send(ctx, msg); err != nil {
			t.Fatalf("Send %s: %v", ref, err)
		}
		if msg.SequenceNumber != uint64(i+1) {
			t.Errorf("%s stamped %d, want %d", ref, msg.SequenceNumber, i+1)
		}
		if msg.Status != message.StatusSent {
			t.Errorf("%s status = %s, want SENT", ref, msg.Status)
		}

		out, err := s.Await(ctx, msg.CorrelationID(), time.Second)
		if err != nil {
			t.Fatalf("Await %s: %v", ref, err)
		}
		if !out.Acked {
			t.Errorf("%s outcome = %+v, want ACK", ref, out)
		}
	}

	if got := s.OutputSeq(); got != 2 {
		t.Errorf("output sequence = %d, want 2", got)
	}

	waitFor(t, 2*time.Second, func() bool { return e.count() == 2 }, "endpoint did not receive both frames")
	for i, msg := range e.frames() {
		if want := uint64(i + 1); msg.SequenceNumber != want {
			t.Errorf("wire frame %d carries sequence %d, want %d", i, msg.SequenceNumber, want)
		}
		if msg.MT.Basic.Session != "4021" {
			t.Errorf("wire frame %d carries session %q, want 4021", i, msg.MT.Basic.Session)
		}
	}
}

func TestSessionSendNotActive(t *testing.T) {
	s, _ := startSession(t, nil, nil)

	err := s.Send(context.Background(), buildPayment(t, "EARLY"))
	if !errors.Is(err, ErrNotActive) {
		t.Fatalf("Send before connect = %v, want ErrNotActive", err)
	}
	if got := s.OutputSeq(); got != 0 {
		t.Errorf("rejected send consumed sequence number %d", got)
	}
}

func TestSessionNack(t *testing.T) {
	s, _ := startSession(t, nil, func(e *endpoint) {
		e.nackCode = "K90"
	})
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	msg := buildPayment(t, "BADPAY")
	if err := s.Send(ctx, msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	out, err := s.Await(ctx, msg.CorrelationID(), time.Second)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if out.Acked {
		t.Fatal("NACKed message reported acked")
	}
	if out.Code != "K90" {
		t.Errorf("reject code = %q, want K90", out.Code)
	}

	evt := waitEvent(t, s, EventNacked, time.Second)
	if evt.Code != "K90" {
		t.Errorf("event code = %q, want K90", evt.Code)
	}
}

func TestSessionReceiveGap(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	if err := st.Put(ctx, store.SessionInputSeqKey("BANKBEBB"), []byte("4")); err != nil {
		t.Fatal(err)
	}

	s, e := startSession(t, func(cfg *Config) { cfg.Store = st }, nil)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := s.InputSeq(); got != 4 {
		t.Fatalf("restored input sequence = %d, want 4", got)
	}

	e.send("{1:F01SWFTUS33AXXX4021000007}{2:I199BANKBEBBAXXXN}{3:{108:INB7}}{4:\n:20:INREF7\n:79:PING\n-}")

	msg, err := s.Receive(ctx, time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if msg.Reference != "INREF7" {
		t.Errorf("received reference = %q, want INREF7", msg.Reference)
	}
	if msg.Status != message.StatusReceived {
		t.Errorf("received status = %s, want RECEIVED", msg.Status)
	}

	evt := waitEvent(t, s, EventSequenceGap, time.Second)
	if evt.Expected != 5 || evt.Observed != 7 {
		t.Errorf("gap event = expected %d observed %d, want 5/7", evt.Expected, evt.Observed)
	}
	if got := s.InputSeq(); got != 7 {
		t.Errorf("input sequence after gap = %d, want 7", got)
	}
}

func TestSessionDuplicateDrop(t *testing.T) {
	s, e := startSession(t, nil, nil)
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	const inbound = "{1:F01SWFTUS33AXXX4021%s}{2:I199BANKBEBBAXXXN}{3:{108:DUPIN}}{4:\n:20:INREF1\n:79:PING\n-}"
	e.send(fmt.Sprintf(inbound, "000001"))

	if _, err := s.Receive(ctx, time.Second); err != nil {
		t.Fatalf("first Receive: %v", err)
	}

	// Same MUR again under a new sequence number: dropped before
	// sequence accounting.
	e.send(fmt.Sprintf(inbound, "000002"))

	waitEvent(t, s, EventSequenceDuplicate, time.Second)
	if _, err := s.Receive(ctx, 150*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("duplicate delivered: %v", err)
	}
	if got := s.InputSeq(); got != 1 {
		t.Errorf("input sequence = %d, want 1", got)
	}
}

func TestSessionSequencePersistence(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	s1, _ := startSession(t, func(cfg *Config) { cfg.Store = st }, nil)
	if err := s1.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	for _, ref := range []string{"PAY1", "PAY2"} {
		if err := s1.Send(ctx, buildPayment(t, ref)); err != nil {
			t.Fatalf("Send %s: %v", ref, err)
		}
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, e2 := startSession(t, func(cfg *Config) { cfg.Store = st }, nil)
	if err := s2.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if got := s2.OutputSeq(); got != 2 {
		t.Fatalf("resumed output sequence = %d, want 2", got)
	}

	if err := s2.Send(ctx, buildPayment(t, "PAY3")); err != nil {
		t.Fatalf("Send PAY3: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return e2.count() == 1 }, "endpoint did not receive the frame")
	if got := e2.frames()[0].SequenceNumber; got != 3 {
		t.Errorf("resumed session stamped %d, want 3", got)
	}
}

func TestSessionConcurrentSend(t *testing.T) {
	s, e := startSession(t, nil, nil)
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	const workers, perWorker = 4, 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				msg := buildPayment(t, fmt.Sprintf("C%d-%d", w, i))
				if err := s.Send(ctx, msg); err != nil {
					errs <- err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Send: %v", err)
	}

	if got := s.OutputSeq(); got != workers*perWorker {
		t.Errorf("output sequence = %d, want %d", got, workers*perWorker)
	}

	waitFor(t, 5*time.Second, func() bool { return e.count() == workers*perWorker },
		"endpoint did not receive every frame")
	seen := make(map[uint64]bool)
	for _, msg := range e.frames() {
		if seen[msg.SequenceNumber] {
			t.Fatalf("sequence number %d sent twice", msg.SequenceNumber)
		}
		seen[msg.SequenceNumber] = true
	}
}

func TestSessionCloseInterruptsReceive(t *testing.T) {
	s, _ := startSession(t, nil, nil)
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	got := make(chan error, 1)
	go func() {
		_, err := s.Receive(ctx, 10*time.Second)
		got <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-got:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Receive after close = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not return after Close")
	}

	if got := s.State(); got != StateDisconnected {
		t.Errorf("state after close = %s, want DISCONNECTED", got)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSessionValidate(t *testing.T) {
	s, _ := startSession(t, nil, nil)
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := s.Validate(ctx); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := s.OutputSeq(); got != 1 {
		t.Errorf("validation probe consumed %d sequence numbers, want 1", got)
	}

	_ = s.Close()
	if err := s.Validate(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Validate after close = %v, want ErrClosed", err)
	}
}

func TestSessionHeartbeat(t *testing.T) {
	s, e := startSession(t, func(cfg *Config) {
		cfg.HeartbeatInterval = 50 * time.Millisecond
		cfg.HeartbeatGrace = 500 * time.Millisecond
	}, nil)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	waitFor(t, 3*time.Second, func() bool { return e.count() >= 1 }, "no heartbeat probe observed")
	if got := e.frames()[0].Type; got != "999" {
		t.Errorf("probe type = %s, want 999", got)
	}
	if got := s.State(); got != StateActive {
		t.Errorf("state after heartbeat = %s, want ACTIVE", got)
	}
}

func TestSessionHeartbeatMiss(t *testing.T) {
	s, _ := startSession(t, func(cfg *Config) {
		cfg.HeartbeatInterval = 40 * time.Millisecond
		cfg.HeartbeatGrace = 80 * time.Millisecond
	}, func(e *endpoint) {
		e.silent = true
	})
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	waitEvent(t, s, EventHeartbeatMissed, 3*time.Second)
	waitFor(t, time.Second, func() bool { return s.State() == StateDegraded },
		"missed heartbeat did not degrade the session")
}

func TestSessionReconnect(t *testing.T) {
	var mu sync.Mutex
	var endpoints []*endpoint

	cfg := Config{
		BIC:               "BANKBEBB",
		Credentials:       Credentials{Username: "alice", Password: "s3cret"},
		ConnectTimeout:    time.Second,
		IOTimeout:         100 * time.Millisecond,
		HeartbeatInterval: -1,
		AutoReconnect:     true,
		Logger:            testLogger(),
	}
	cfg.Dialer = func(_ context.Context, tc transport.Config) (*transport.Stream, error) {
		mu.Lock()
		defer mu.Unlock()
		cliConn, srvConn := net.Pipe()
		e := newEndpoint(t, srvConn)
		go e.serve()
		endpoints = append(endpoints, e)
		return transport.NewStream(cliConn, tc.IOTimeout), nil
	}

	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Send(ctx, buildPayment(t, "PRE")); err != nil {
		t.Fatalf("Send before drop: %v", err)
	}

	// Drop the transport out from under the session.
	mu.Lock()
	first := endpoints[0]
	mu.Unlock()
	_ = first.stream.Close()

	waitEvent(t, s, EventReconnected, 5*time.Second)
	if got := s.State(); got != StateActive {
		t.Fatalf("state after reconnect = %s, want ACTIVE", got)
	}
	mu.Lock()
	dials := len(endpoints)
	mu.Unlock()
	if dials != 2 {
		t.Errorf("dial count = %d, want 2", dials)
	}

	// Counters survive the reconnect in memory.
	if err := s.Send(ctx, buildPayment(t, "POST")); err != nil {
		t.Fatalf("Send after reconnect: %v", err)
	}
	if got := s.OutputSeq(); got != 2 {
		t.Errorf("output sequence after reconnect = %d, want 2", got)
	}
}

func TestSessionReconnectGivesUp(t *testing.T) {
	var mu sync.Mutex
	dials := 0
	var firstEndpoint *endpoint

	cfg := Config{
		BIC:                  "BANKBEBB",
		Credentials:          Credentials{Username: "alice", Password: "s3cret"},
		ConnectTimeout:       time.Second,
		IOTimeout:            100 * time.Millisecond,
		HeartbeatInterval:    -1,
		AutoReconnect:        true,
		MaxReconnectAttempts: 1,
		Logger:               testLogger(),
	}
	cfg.Dialer = func(_ context.Context, tc transport.Config) (*transport.Stream, error) {
		mu.Lock()
		defer mu.Unlock()
		dials++
		if dials > 1 {
			return nil, errors.New("endpoint unreachable")
		}
		cliConn, srvConn := net.Pipe()
		firstEndpoint = newEndpoint(t, srvConn)
		go firstEndpoint.serve()
		return transport.NewStream(cliConn, tc.IOTimeout), nil
	}

	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	mu.Lock()
	e := firstEndpoint
	mu.Unlock()
	_ = e.stream.Close()

	waitFor(t, 5*time.Second, func() bool { return s.State() == StateDisconnected },
		"exhausted reconnect did not disconnect the session")
}
