// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package transport provides the framed byte stream the session engine
speaks over, plain TCP or TLS-wrapped.

A Stream carries whole frames rather than raw bytes: WriteFrame
serializes concurrent writers so frames never interleave, and
ReadFrame returns the next complete MT frame, MX document or bare text
line together with its detected format. Frames are delimited by a
trailing CRLF on the wire; interframe whitespace is skipped on read.

# Error Classification

Transport failures are wrapped in Error and classified by Kind so
callers can branch on failure class instead of matching error text:

  - KindDNS: name resolution failed
  - KindRefused: the endpoint refused the connection
  - KindTLS: handshake or certificate verification failed
  - KindTimeout: a deadline elapsed
  - KindClosed: the stream is closed
  - KindIO: any other read or write fault

Retryable reports which classes are worth retrying without operator
intervention. TLS failures are not: they need a configuration fix, not
another attempt.

# DNS Preflight

Resolver resolves the endpoint host before dialing, against either the
system configuration or a designated server, so that name-service
faults surface as KindDNS rather than an undifferentiated dial error.

# References

  - SWIFT User Handbook, FIN Service Description (connectivity)
  - RFC 1035 (DNS): https://www.rfc-editor.org/rfc/rfc1035
*/
package transport
