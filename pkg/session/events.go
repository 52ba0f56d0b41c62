package session

import "time"

// EventType identifies a session lifecycle notification.
type EventType string

const (
	EventStateChanged      EventType = "STATE_CHANGED"
	EventAcked             EventType = "ACKED"
	EventNacked            EventType = "NACKED"
	EventSequenceGap       EventType = "SEQUENCE_GAP"
	EventSequenceDuplicate EventType = "SEQUENCE_DUPLICATE"
	EventHeartbeatMissed   EventType = "HEARTBEAT_MISSED"
	EventReconnected       EventType = "RECONNECTED"
)

// Event is a session lifecycle notification. Only the fields relevant
// to the event type are set.
type Event struct {
	Type          EventType
	State         string // new state for STATE_CHANGED
	CorrelationID string // acknowledged message reference
	Code          string // reject code for NACKED
	Expected      uint64 // expected input sequence for gap/duplicate
	Observed      uint64 // observed input sequence for gap/duplicate
	At            time.Time
}

// emit delivers an event without blocking the protocol path. Events
// are dropped when no listener keeps up.
func (s *Session) emit(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	select {
	case s.events <- evt:
	default:
	}
}

// Events returns the lifecycle notification channel.
func (s *Session) Events() <-chan Event {
	return s.events
}
