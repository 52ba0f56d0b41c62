// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package reject defines the FIN reject-code dictionary consulted when a
negative acknowledgement or protocol fault is classified.

Every NACK carries a short alphanumeric code whose leading letter names
the reporting subsystem: H for session control, K for security and
authorization, T for text validation, U for system conditions. The
dictionary maps each code to a severity that drives the enforcement
policy:

  - TERMINAL: the operation fails outright; never retried blindly
  - RETRYABLE: reported as a structured result the caller may retry
  - WARNING: logged and passed through

Codes absent from the dictionary resolve to a TERMINAL definition. An
unrecognized rejection is never assumed to be safely retryable.

# Hot Reload

SWIFT revises the code tables with each annual Standards Release, so
the dictionary is replaceable at runtime. Registry holds the active
table behind an atomic pointer: Lookup is lock-free, and Reload builds
the replacement table completely before swapping it in, so concurrent
readers never observe a partial dictionary.

# References

  - SWIFT User Handbook, FIN Error Codes
  - SWIFT Standards Release Guide: https://www.swift.com/standards
*/
package reject
