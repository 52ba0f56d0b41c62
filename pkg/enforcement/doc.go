// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package enforcement applies the reject-code policy: every negative
acknowledgement or detected protocol fault is looked up in the
dictionary and either fails the operation or is reported back as a
structured result.

The split is binary so calling flows can branch deterministically:

  - TERMINAL codes fail the operation with a TerminalRejectError. The
    rejection record and, for codes needing human follow-up, an
    investigation case are persisted before the failure surfaces.
  - RETRYABLE and WARNING codes produce a Response carrying the code,
    description and remediation guidance; the caller decides whether
    and when to retry. The rejection record is still written for audit.

Codes missing from the dictionary take the TERMINAL path. An
unrecognized rejection is never assumed to be safely retryable.

Audit writes here are best effort: a store failure while recording a
rejection or opening a case is logged and does not mask the protocol
failure being reported.

The enforcer also runs the pre-wire checks on outbound messages:
structural BIC validation and, when configured, sanctions screening.
A screening hit stops the message before it reaches the wire.
*/
package enforcement
