// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package swiftfin implements a client-side SWIFT FIN protocol engine for
sending and receiving interbank financial messages.

# Overview

swiftfin is a Go connector for the SWIFT FIN messaging service. It
maintains the stateful terminal session against a FIN endpoint (login,
dual sequence counters, heartbeat, reconnection), speaks both message
syntaxes in use on the network, enforces the reject-code taxonomy on
negative acknowledgements, and keeps a durable investigation ledger for
payments that need human follow-up.

# Specifications Implemented

This library implements behavior described in the following
specifications:

  - SWIFT FIN messaging (MT, ISO 15022): https://www.swift.com/standards/message-standards/mt
  - ISO 20022 messaging (MX): https://www.iso20022.org/
  - SWIFT gpi tracking and recall: https://www.swift.com/our-solutions/swift-gpi
  - SWIFT Standards Release error codes (ACK/NAK reporting)

# Package Structure

The library is organized into the following packages:

	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/fin         - Main connector client API
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/session     - Terminal session state machine
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message     - Unified message model and MT builders
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/mt          - MT block syntax codec (ISO 15022)
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/mx          - MX XML codec (ISO 20022)
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/parser      - Format detection and codec registry
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/reject      - Reject-code dictionary and registry
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/enforcement - Rejection policy and outbound validation
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/ledger      - Investigation cases and rejection records
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/store       - Durable key-value store (memory, Badger, MongoDB)
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/transport   - Framed TCP/TLS transport with DNS preflight
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/screening   - Sanctions screening hooks
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/gpi         - Payment tracking and recall client
	github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/metrics     - Prometheus instrumentation

# Quick Start

To connect and send a customer credit transfer:

	import (
	    "github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/fin"
	    "github.com/GaryHostt/MuleSoft-SWIFT-connector-sub002/pkg/message"
	)

	cfg, _ := fin.Load("connector.yaml")
	client, _ := fin.NewClient(ctx, cfg)
	defer client.Close(ctx)

	if _, err := client.Connect(ctx); err != nil {
	    log.Fatal(err)
	}

	payment, _ := message.NewMT103(
	    message.WithSender("BANKBEBB"),
	    message.WithReceiver("SWFTUS33"),
	    message.WithReference("INVOICE-4711"),
	    message.WithAmount("260825", "EUR", "12500,00"),
	    message.WithOrderingCustomer("/BE71096123456769\nACME NV"),
	    message.WithBeneficiary("/US64SVBKUS6S3300958879\nGLOBEX CORP"),
	).Build()

	result, err := client.Send(ctx, payment)

# Session Reliability

The session layer provides the guarantees interbank messaging expects:

  - Monotonic sequence numbering: every outbound message burns exactly
    one output sequence number, stamped into its header, never reused.
  - Durable counters: both directions checkpoint to the configured
    store so a restarted connector resumes where it stopped.
  - Gap and duplicate detection: inbound sequence gaps are surfaced as
    events, replayed MURs inside the detection window are dropped.
  - Heartbeat supervision: missed echoes degrade the session and, with
    reconnection enabled, trigger exponential-backoff recovery that
    re-authenticates and resumes the counters.

# Rejection Handling

Negative acknowledgements are classified through a reloadable
dictionary. Terminal codes fail the operation only after the rejection
record, and an investigation case for codes that warrant one, are
durably persisted. Retryable and warning codes report structured
remediation guidance without failing. Codes missing from the dictionary
are treated as terminal.

# License

BSD-2-Clause License
*/
package swiftfin
