// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package ledger keeps the durable audit trail behind exception handling:
investigation cases raised for rejected or disputed payments, and the
write-once rejection records produced when a NACK or terminal reject
code is classified.

# Cases

A Case tracks one inquiry about one message. It is created OPEN and
moves through a fixed status graph until CLOSED; every change appends
a timestamped Entry, so the case history is never rewritten. Cases are
never deleted. A CLOSED case accepts no further mutation of any kind,
and no transition leads out of CLOSED.

Because the counterparty may resolve an inquiry long after the process
that opened it has restarted, cases persist through the store
abstraction and a message-id reverse index allows the resolution to be
matched back to its case.

# Rejection Records

A RejectionRecord is the immutable fact that a message was rejected
with a particular code. Exactly one record may exist per message id;
a second write returns ErrRecordExists rather than overwriting the
audit trail.

All read-modify-write paths are serialized by a ledger-level mutex so
two racing resolutions cannot lose updates.
*/
package ledger
