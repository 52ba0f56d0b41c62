// Copyright (c) 2025 SWIFT FIN Connector Authors
// SPDX-License-Identifier: BSD-2-Clause

/*
Package parser selects between the MT and MX codecs and extracts frames
from a network stream.

# Format Detection

Detect classifies a buffer by its first significant byte: "{" starts a
FIN block frame, "<" an ISO 20022 document. Buffers below MinFrameLen
are rejected with a syntax error before any codec runs, so truncated
input can never panic a codec.

# Registry

Registry is a dependency-injected dispatch table from Format to codec.
The default registry installs the mt and mx codecs; tests and
alternative deployments can register substitutes:

	reg := parser.NewRegistry()
	msg, err := reg.Parse(raw)
	wire, err := reg.Serialize(msg)

# Frame Scanning

ScanFrame reads one frame from a buffered stream: MT frames by
balanced-brace block scanning, MX documents by tracking the root
element to its close tag, and bare text lines for endpoints that answer
session control in plain text.
*/
package parser
