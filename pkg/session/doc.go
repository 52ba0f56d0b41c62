// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package session implements the stateful FIN session: connection,
login, sequence-numbered exchange, heartbeat and reconnection.

# States

A session moves through a fixed state machine:

	DISCONNECTED -> CONNECTING -> AUTHENTICATING -> ACTIVE <-> DEGRADED
	          ACTIVE/DEGRADED -> CLOSING -> DISCONNECTED

Connect dials the endpoint, performs the login exchange and, on
success, synchronizes the sequence counters from the durable store
before the session becomes ACTIVE. Send and Receive are only legal in
ACTIVE. A transport fault moves the session to DEGRADED; when
auto-reconnect is enabled a background loop re-dials with exponential
backoff, re-authenticates and re-synchronizes counters before traffic
resumes.

# Sequencing

Each direction carries its own counter. Send atomically assigns the
next output sequence number under a single-writer lock, so concurrent
callers never observe duplicates and frames reach the wire in counter
order. Inbound frames are compared against the expected input
sequence: a gap is reported as an event and the counter advances to
the observed value rather than failing the read. Both counters are
checkpointed to the durable store keyed by BIC.

# Acknowledgements

Sent messages are tracked by their correlation reference. The inbound
loop resolves service frames against the tracker, and Await blocks for
the matching ACK or NACK outcome. Lifecycle notifications (state
changes, NACKs, sequence gaps, missed heartbeats) are emitted on the
Events channel and dropped when no listener keeps up.

# References

  - SWIFT User Handbook, FIN Service Description (session management)
  - SWIFT User Handbook, FIN Operations Guide (sequence numbering)
*/
package session
