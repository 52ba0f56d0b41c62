package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/transport"
)

// Send stamps the next output sequence number on msg, serializes it
// and writes it to the wire. Writes are serialized so the counterparty
// observes frames in sequence order. The message is tracked for
// acknowledgement under its correlation identifier; Await collects
// the outcome.
func (s *Session) Send(ctx context.Context, msg *message.Message) error {
	if s.closed() {
		return ErrClosed
	}
	if state := s.State(); state != StateActive {
		return fmt.Errorf("%w: state %s", ErrNotActive, state)
	}
	stream := s.currentStream()
	if stream == nil {
		return ErrNotActive
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	n := s.seq.NextOutput()
	msg.StampSequence(n)
	if msg.MT != nil {
		if id := s.id.Load(); isNumericSession(id) {
			msg.MT.Basic.Session = id
		}
	}

	frame, err := s.cfg.Registry.Serialize(msg)
	if err != nil {
		// Nothing reached the wire, so the number is reclaimable.
		s.seq.rollbackOutput()
		return fmt.Errorf("serializing %s message: %w", msg.Type, err)
	}

	// The waiter must exist before any bytes reach the wire; the
	// acknowledgement can arrive before WriteFrame returns.
	corr := msg.CorrelationID()
	if corr != "" {
		s.tracker.Track(corr)
	}

	if err := stream.WriteFrame(frame); err != nil {
		// The frame may have partially reached the counterparty, so
		// the sequence number stays burned.
		if corr != "" {
			s.tracker.Forget(corr)
		}
		msg.Status = message.StatusFailed
		s.logger.Error("frame write failed", "type", msg.Type, "output_seq", n, "error", err)
		s.degrade(err)
		return fmt.Errorf("writing frame: %w", err)
	}

	msg.Status = message.StatusSent
	msg.SentAt = time.Now()
	msg.SessionID = s.ID()
	s.touch()
	s.seq.Checkpoint(ctx)
	s.cfg.Metrics.MessageSent(string(msg.Format))

	s.logger.Debug("message sent",
		"type", msg.Type,
		"format", msg.Format,
		"output_seq", n,
		"correlation_id", corr)
	return nil
}

// Receive returns the next inbound business message, waiting up to
// timeout (the configured IO timeout when zero). Sequence gaps on the
// inbound side are reported through the event channel, not as receive
// errors.
func (s *Session) Receive(ctx context.Context, timeout time.Duration) (*message.Message, error) {
	// Drain buffered messages even when the session is closing down.
	select {
	case msg := <-s.recvQ:
		return msg, nil
	default:
	}

	if timeout <= 0 {
		timeout = s.cfg.IOTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-s.recvQ:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrClosed
	case <-timer.C:
		return nil, fmt.Errorf("%w waiting for inbound message", ErrTimeout)
	}
}

// Await blocks until the counterparty acknowledges the message sent
// under correlationID, up to timeout (the configured IO timeout when
// zero). The outcome reports ACK or NACK with its reject code.
func (s *Session) Await(ctx context.Context, correlationID string, timeout time.Duration) (Outcome, error) {
	ch, ok := s.tracker.Waiter(correlationID)
	if !ok {
		return Outcome{}, fmt.Errorf("no pending acknowledgement for %q", correlationID)
	}

	// An acknowledgement that already arrived is buffered.
	select {
	case out := <-ch:
		s.tracker.Forget(correlationID)
		return out, nil
	default:
	}

	if timeout <= 0 {
		timeout = s.cfg.IOTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		s.tracker.Forget(correlationID)
		return out, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-s.done:
		return Outcome{}, ErrClosed
	case <-timer.C:
		return Outcome{}, fmt.Errorf("%w awaiting acknowledgement of %s", ErrTimeout, correlationID)
	}
}

// readLoop drains the stream until it fails or the session closes.
// Transport failures outside shutdown degrade the session.
func (s *Session) readLoop(stream *transport.Stream) {
	defer s.loopWG.Done()

	for {
		frame, format, err := stream.ReadFrame(0)
		if err != nil {
			var terr *transport.Error
			if errors.As(err, &terr) && terr.Kind == transport.KindTimeout {
				if s.closed() {
					return
				}
				continue
			}
			if s.closed() || s.State() == StateClosing {
				return
			}
			s.logger.Warn("read loop terminated", "error", err)
			s.degrade(err)
			return
		}
		s.touch()
		s.handleFrame(frame, format)
	}
}

// handleFrame routes one inbound frame: service frames resolve
// acknowledgements, business messages go through sequence accounting
// to the receive queue.
func (s *Session) handleFrame(frame []byte, format message.Format) {
	if format == message.FormatUnknown {
		s.logger.Debug("ignoring non-protocol line", "len", len(frame))
		return
	}

	msg, err := s.cfg.Registry.Parse(frame)
	if err != nil {
		s.logger.Warn("discarding unparseable frame", "format", format, "error", err)
		return
	}

	if msg.IsService() {
		s.handleService(msg)
		return
	}
	s.observeInbound(msg)
}

// handleService resolves an ACK or NACK service frame against the
// tracked message it acknowledges.
func (s *Session) handleService(msg *message.Message) {
	corr := msg.CorrelationID()

	flag, ok := msg.FieldValue("451")
	if !ok {
		s.logger.Debug("service frame without acknowledgement flag", "correlation_id", corr)
		return
	}

	if flag == "0" {
		s.logger.Debug("acknowledgement received", "correlation_id", corr)
		if corr != "" {
			s.tracker.Resolve(corr, Outcome{Acked: true})
		}
		s.emit(Event{Type: EventAcked, CorrelationID: corr})
		return
	}

	code, _ := msg.FieldValue("405")
	s.logger.Warn("negative acknowledgement received", "correlation_id", corr, "code", code)
	if corr != "" {
		s.tracker.Resolve(corr, Outcome{Acked: false, Code: code})
	}
	s.emit(Event{Type: EventNacked, CorrelationID: corr, Code: code})
}

// observeInbound runs sequence accounting for one business message
// and queues it for Receive. A mismatched sequence number is reported
// and the counter is moved to the observed value; the message is
// still delivered. Only an exact duplicate of an already seen
// correlation identifier is dropped.
func (s *Session) observeInbound(msg *message.Message) {
	corr := msg.CorrelationID()
	if corr != "" && s.tracker.Seen(corr) {
		s.logger.Warn("dropping duplicate inbound message", "correlation_id", corr)
		s.cfg.Metrics.DuplicateSeen()
		s.emit(Event{Type: EventSequenceDuplicate, CorrelationID: corr})
		return
	}

	if n := msg.SequenceNumber; n > 0 {
		expected := s.seq.Input() + 1
		switch {
		case n == expected:
			s.seq.SetInput(n)
		case n > expected:
			s.logger.Warn("input sequence mismatch",
				"error", &SequenceMismatchError{Expected: expected, Observed: n})
			s.cfg.Metrics.SequenceGap()
			s.emit(Event{Type: EventSequenceGap, CorrelationID: corr, Expected: expected, Observed: n})
			s.seq.SetInput(n)
		default:
			s.logger.Warn("input sequence mismatch",
				"error", &SequenceMismatchError{Expected: expected, Observed: n, Duplicate: true})
			s.cfg.Metrics.DuplicateSeen()
			s.emit(Event{Type: EventSequenceDuplicate, CorrelationID: corr, Expected: expected, Observed: n})
			s.seq.SetInput(n)
		}
	}

	msg.Status = message.StatusReceived
	msg.SessionID = s.ID()
	s.cfg.Metrics.MessageReceived(string(msg.Format))

	select {
	case s.recvQ <- msg:
	default:
		s.logger.Warn("inbound queue full, dropping message",
			"correlation_id", corr, "type", msg.Type)
	}
}

func isNumericSession(id string) bool {
	if len(id) != 4 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
