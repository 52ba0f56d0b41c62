// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package fin is the business-facing surface of the connector. A Client
composes the transport, session, parsers, reject-code registry,
enforcement layer, investigation ledger and durable store behind one
API:

	cfg, err := fin.Load("connector.yaml")
	if err != nil {
		log.Fatal(err)
	}
	client, err := fin.NewClient(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close(context.Background())

	if _, err := client.Connect(ctx); err != nil {
		log.Fatal(err)
	}

	msg, _ := message.NewMT103(...).Build()
	result, err := client.Send(ctx, msg)

Send delivers the message and waits for the counterparty's verdict: an
acknowledged message returns an ACKED result, a retryable rejection
returns a NACKED result carrying the dictionary's guidance, and a
terminal rejection is an error after the audit trail is written. The
caller branches on structure, never on error substrings.

Investigation cases and the reject dictionary are reachable through
the same client, so exception handling and payment traffic share one
durable store and one configuration.
*/
package fin
