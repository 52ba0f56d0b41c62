// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package message provides the unified message model shared by the MT and
MX codecs, the session engine, and the enforcement layer.

A Message is format-agnostic: the same struct carries a block-structured
FIN MT message or an ISO 20022 MX document, distinguished by its Format.
Codec-specific envelope detail (FIN basic header, application header,
user header, trailers) lives in the MTEnvelope sub-structure so that a
parsed frame can be re-serialized byte for byte.

# Message Types

Message - the canonical representation:
  - Identification: ID, MUR (message user reference), UETR, Reference
  - Addressing: Sender and Receiver BICs, Priority
  - Sequencing: SequenceNumber, SessionID
  - Content: Type ("103", "pacs.008.001.08"), Fields, Amount, Raw
  - Lifecycle: Status with created/sent/acknowledged timestamps

MTEnvelope - the FIN block structure around an MT body:
  - BasicHeader: application ID, service ID, logical terminal, session
    and sequence numbers (block 1)
  - AppHeader: direction, message type, correspondent, priority (block 2)
  - UserHeader and Trailers: ordered tag/value pairs (blocks 3 and 5)

# Building Messages

Use the fluent builder API to construct customer transfers:

	msg, err := message.NewMT103(
	    message.WithSender("BANKBEBB"),
	    message.WithReceiver("BANKUS33"),
	    message.WithReference("REF-2024-001"),
	    message.WithAmount("240110", "USD", "1000,00"),
	    message.WithBeneficiary("/123456789\nACME CORP"),
	).Build()

The builder validates addressing, reference and amount requirements and
stamps a message user reference for acknowledgement correlation.

# References

  - ISO 9362 (BIC): https://www.iso9362.org/
  - ISO 4217 (currency codes): https://www.iso.org/iso-4217-currency-codes.html
  - SWIFT FIN message structure: SWIFT User Handbook, FIN Operations Guide
*/
package message
