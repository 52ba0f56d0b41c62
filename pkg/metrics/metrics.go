// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

// Package metrics exposes the connector's Prometheus instrumentation.
//
// Every recording method is safe on a nil *Metrics, so components take
// an optional collector and call it unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the connector's instruments.
type Metrics struct {
	messagesSent     *prometheus.CounterVec
	messagesReceived *prometheus.CounterVec
	nacks            *prometheus.CounterVec
	sequenceGaps     prometheus.Counter
	duplicatesSeen   prometheus.Counter
	stateChanges     *prometheus.CounterVec
	reconnects       prometheus.Counter
	heartbeatMisses  prometheus.Counter
	sendLatency      prometheus.Histogram
}

// New registers the connector instruments with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		messagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swift",
			Subsystem: "fin",
			Name:      "messages_sent_total",
			Help:      "Messages written to the wire, by format",
		}, []string{"format"}),
		messagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swift",
			Subsystem: "fin",
			Name:      "messages_received_total",
			Help:      "Messages delivered to the application, by format",
		}, []string{"format"}),
		nacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swift",
			Subsystem: "fin",
			Name:      "nacks_total",
			Help:      "Negative acknowledgements, by dictionary severity and code",
		}, []string{"severity", "code"}),
		sequenceGaps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "swift",
			Subsystem: "fin",
			Name:      "sequence_gaps_total",
			Help:      "Inbound sequence gaps detected",
		}),
		duplicatesSeen: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "swift",
			Subsystem: "fin",
			Name:      "duplicates_total",
			Help:      "Duplicate inbound deliveries detected",
		}),
		stateChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swift",
			Subsystem: "fin",
			Name:      "session_state_changes_total",
			Help:      "Session state machine transitions, by target state",
		}, []string{"state"}),
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "swift",
			Subsystem: "fin",
			Name:      "reconnect_attempts_total",
			Help:      "Reconnection attempts after session degradation",
		}),
		heartbeatMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "swift",
			Subsystem: "fin",
			Name:      "heartbeat_misses_total",
			Help:      "Heartbeat probes that drew no response within the grace period",
		}),
		sendLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "swift",
			Subsystem: "fin",
			Name:      "send_roundtrip_seconds",
			Help:      "Latency from send to matching acknowledgement",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// MessageSent counts one outbound message of the given format.
func (m *Metrics) MessageSent(format string) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(format).Inc()
}

// MessageReceived counts one inbound message of the given format.
func (m *Metrics) MessageReceived(format string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(format).Inc()
}

// Nack counts one negative acknowledgement.
func (m *Metrics) Nack(severity, code string) {
	if m == nil {
		return
	}
	m.nacks.WithLabelValues(severity, code).Inc()
}

// SequenceGap counts one detected inbound sequence gap.
func (m *Metrics) SequenceGap() {
	if m == nil {
		return
	}
	m.sequenceGaps.Inc()
}

// DuplicateSeen counts one detected duplicate delivery.
func (m *Metrics) DuplicateSeen() {
	if m == nil {
		return
	}
	m.duplicatesSeen.Inc()
}

// StateChanged counts one session transition into state.
func (m *Metrics) StateChanged(state string) {
	if m == nil {
		return
	}
	m.stateChanges.WithLabelValues(state).Inc()
}

// ReconnectAttempt counts one reconnection attempt.
func (m *Metrics) ReconnectAttempt() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// HeartbeatMissed counts one unanswered heartbeat probe.
func (m *Metrics) HeartbeatMissed() {
	if m == nil {
		return
	}
	m.heartbeatMisses.Inc()
}

// ObserveSendLatency records one send round-trip duration.
func (m *Metrics) ObserveSendLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.sendLatency.Observe(d.Seconds())
}
