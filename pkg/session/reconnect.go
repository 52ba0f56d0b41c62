package session

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// degrade moves an ACTIVE session to DEGRADED and, when configured,
// starts the reconnect loop. The transition gate makes concurrent
// callers idempotent; only the caller that wins the ACTIVE to
// DEGRADED transition can spawn the loop.
func (s *Session) degrade(cause error) {
	if s.closed() {
		return
	}
	if err := s.transition(eventDegrade); err != nil {
		return
	}
	s.logger.Warn("session degraded", "cause", cause)

	if !s.cfg.AutoReconnect {
		return
	}
	if s.reconnecting.CompareAndSwap(false, true) {
		s.loopWG.Add(1)
		go s.reconnectLoop()
	}
}

// reconnectLoop re-establishes the transport with exponential backoff
// until it succeeds, the attempt budget runs out or the session
// closes.
func (s *Session) reconnectLoop() {
	defer s.loopWG.Done()
	defer s.reconnecting.Store(false)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0

	var b backoff.BackOff = policy
	if s.cfg.MaxReconnectAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(s.cfg.MaxReconnectAttempts))
	}
	// Context wrapping goes outermost so Close interrupts a backoff
	// sleep instead of waiting it out.
	bc := backoff.WithContext(b, s.ctx)

	attempt := 0
	op := func() error {
		if s.closed() {
			return backoff.Permanent(ErrClosed)
		}
		attempt++
		s.logger.Info("reconnecting", "attempt", attempt)
		s.cfg.Metrics.ReconnectAttempt()
		return s.reattach()
	}

	if err := backoff.Retry(op, bc); err != nil {
		if s.closed() {
			return
		}
		s.logger.Error("reconnect abandoned", "attempts", attempt, "error", err)
		_ = s.transition(eventDisconnect)
	}
}

// reattach replaces the dead transport with a fresh authenticated one
// and restarts the read loop. The in-memory sequence counters carry
// over; they are ahead of any checkpoint.
func (s *Session) reattach() error {
	if old := s.currentStream(); old != nil {
		_ = old.Close()
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.ConnectTimeout)
	defer cancel()

	stream, err := s.dial(ctx)
	if err != nil {
		return err
	}

	if err := s.login(stream); err != nil {
		_ = stream.Close()
		var authErr *AuthError
		if errors.As(err, &authErr) {
			// Credentials will not improve with retries.
			return backoff.Permanent(err)
		}
		return err
	}

	s.setStream(stream)
	if err := s.transition(eventActivate); err != nil {
		_ = stream.Close()
		return err
	}
	s.touch()
	s.seq.Checkpoint(context.Background())

	s.loopWG.Add(1)
	go s.readLoop(stream)

	s.emit(Event{Type: EventReconnected})
	s.logger.Info("session reconnected",
		"endpoint", stream.RemoteAddr(),
		"session_id", s.ID())
	return nil
}
