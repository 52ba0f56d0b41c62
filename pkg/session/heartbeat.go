package session

import (
	"context"
	"fmt"
	"time"

	"github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
)

// heartbeatLoop probes the endpoint with an MT 999 whenever the
// session has been quiet for a full interval. A missed echo degrades
// the session.
func (s *Session) heartbeatLoop() {
	defer s.loopWG.Done()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.State() != StateActive {
				continue
			}
			if time.Since(s.LastActivity()) < s.cfg.HeartbeatInterval {
				continue
			}
			ctx, cancel := context.WithTimeout(s.ctx, s.cfg.HeartbeatGrace)
			err := s.heartbeat(ctx)
			cancel()
			if err != nil {
				if s.closed() {
					return
				}
				s.logger.Warn("heartbeat missed", "error", err)
				s.cfg.Metrics.HeartbeatMissed()
				s.emit(Event{Type: EventHeartbeatMissed})
				s.degrade(err)
			}
		}
	}
}

// heartbeat sends one probe and waits for its acknowledgement.
func (s *Session) heartbeat(ctx context.Context) error {
	msg, err := s.heartbeatMessage()
	if err != nil {
		return fmt.Errorf("building heartbeat: %w", err)
	}
	if err := s.Send(ctx, msg); err != nil {
		return err
	}
	if _, err := s.Await(ctx, msg.CorrelationID(), s.cfg.HeartbeatGrace); err != nil {
		return err
	}
	return nil
}

// heartbeatMessage builds an MT 999 addressed to the session's own
// institution. The MUR correlates the echo.
func (s *Session) heartbeatMessage() (*message.Message, error) {
	ref := "HB" + time.Now().UTC().Format("060102150405")
	return message.NewMT("999",
		message.WithSender(s.cfg.BIC),
		message.WithReceiver(s.cfg.BIC),
		message.WithReference(ref),
		message.WithMUR(message.NewMUR()),
		message.WithField("79", "HEARTBEAT"),
	).Build()
}

// Validate confirms liveness with a full heartbeat round trip. It
// needs an ACTIVE session and an endpoint that acknowledges probes.
func (s *Session) Validate(ctx context.Context) error {
	if s.closed() {
		return ErrClosed
	}
	if state := s.State(); state != StateActive {
		return fmt.Errorf("%w: state %s", ErrNotActive, state)
	}
	if err := s.heartbeat(ctx); err != nil {
		return fmt.Errorf("session validation: %w", err)
	}
	return nil
}
